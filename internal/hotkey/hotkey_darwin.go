//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework Carbon
#include <Carbon/Carbon.h>

// Forward declaration for Go callback
extern void goHotkeyCallback(int id, int pressed);

// Event handler for hotkeys
static OSStatus hotkeyHandler(EventHandlerCallRef nextHandler, EventRef theEvent, void* userData) {
    EventHotKeyID hkRef;
    GetEventParameter(theEvent, kEventParamDirectObject, typeEventHotKeyID, NULL, sizeof(hkRef), NULL, &hkRef);

    UInt32 eventKind = GetEventKind(theEvent);
    int pressed = (eventKind == kEventHotKeyPressed) ? 1 : 0;

    goHotkeyCallback((int)hkRef.id, pressed);

    return noErr;
}

static int handlerInstalled = 0;

static int registerHotkey(UInt32 keyCode, UInt32 modifiers, UInt32 id) {
    if (!handlerInstalled) {
        EventTypeSpec eventTypes[2];
        eventTypes[0].eventClass = kEventClassKeyboard;
        eventTypes[0].eventKind = kEventHotKeyPressed;
        eventTypes[1].eventClass = kEventClassKeyboard;
        eventTypes[1].eventKind = kEventHotKeyReleased;

        EventHandlerUPP handlerUPP = NewEventHandlerUPP(hotkeyHandler);
        InstallApplicationEventHandler(handlerUPP, 2, eventTypes, NULL, NULL);
        handlerInstalled = 1;
    }

    EventHotKeyRef hotKeyRef;
    EventHotKeyID hotKeyID;
    hotKeyID.signature = 'snos';
    hotKeyID.id = id;

    OSStatus status = RegisterEventHotKey(keyCode, modifiers, hotKeyID, GetApplicationEventTarget(), 0, &hotKeyRef);

    return (status == noErr) ? 1 : 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
)

// Carbon virtual key codes for the function keys F1..F20.
var fKeyCodes = map[int]uint32{
	1: 122, 2: 120, 3: 99, 4: 118, 5: 96,
	6: 97, 7: 98, 8: 100, 9: 101, 10: 109,
	11: 103, 12: 111, 13: 105, 14: 107, 15: 113,
	16: 106, 17: 64, 18: 79, 19: 80, 20: 90,
}

type darwinManager struct {
	mu        sync.Mutex
	nextID    int
	callbacks map[int]func(bool)
	ids       map[string]int
}

var (
	managerMu     sync.Mutex
	globalManager *darwinManager
)

// New creates a new macOS hotkey manager using Carbon
func New() (Manager, error) {
	mgr := &darwinManager{
		nextID:    1,
		callbacks: make(map[int]func(bool)),
		ids:       make(map[string]int),
	}
	managerMu.Lock()
	globalManager = mgr
	managerMu.Unlock()
	return mgr, nil
}

//export goHotkeyCallback
func goHotkeyCallback(id, pressed C.int) {
	managerMu.Lock()
	mgr := globalManager
	managerMu.Unlock()
	if mgr == nil {
		return
	}

	mgr.mu.Lock()
	cb := mgr.callbacks[int(id)]
	mgr.mu.Unlock()
	if cb != nil {
		cb(pressed == 1)
	}
}

func (m *darwinManager) Register(accel string, callback func(pressed bool)) error {
	fn, err := parseFKey(accel)
	if err != nil {
		return err
	}
	keyCode, ok := fKeyCodes[fn]
	if !ok {
		return fmt.Errorf("no key code for %q", accel)
	}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.callbacks[id] = callback
	m.ids[accel] = id
	m.mu.Unlock()

	// Function keys register without modifiers; fn is handled by the
	// keyboard firmware.
	if C.registerHotkey(C.UInt32(keyCode), C.UInt32(0), C.UInt32(id)) == 0 {
		return fmt.Errorf("failed to register hotkey %q", accel)
	}
	return nil
}

func (m *darwinManager) Unregister(accel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[accel]; ok {
		delete(m.callbacks, id)
		delete(m.ids, accel)
	}
	return nil
}

func (m *darwinManager) Close() error {
	managerMu.Lock()
	globalManager = nil
	managerMu.Unlock()
	return nil
}
