//go:build darwin

package mediakeys

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework CoreGraphics
#import <Cocoa/Cocoa.h>
#import <CoreGraphics/CoreGraphics.h>

// NX_SYSDEFINED: the CGEvent type carrying media-key presses.
#define kSystemDefinedEventType 14
// NSEvent subtype for media keys within system-defined events.
#define kMediaKeySubtype 8

extern int goMediaKeyEvent(int keyCode, int isRepeat);

static CFMachPortRef tapPort = NULL;
static CFRunLoopRef tapRunLoop = NULL;

static CGEventRef mediaKeyTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon) {
    // The OS disables a tap that is too slow; re-enable and move on.
    if (type == kCGEventTapDisabledByTimeout || type == kCGEventTapDisabledByUserInput) {
        if (tapPort != NULL) {
            CGEventTapEnable(tapPort, true);
        }
        return event;
    }

    NSEvent *nsEvent = [NSEvent eventWithCGEvent:event];
    if (nsEvent == nil || [nsEvent subtype] != kMediaKeySubtype) {
        return event;
    }

    long data1 = [nsEvent data1];
    int keyCode = (data1 & 0xFFFF0000) >> 16;
    int keyFlags = (data1 & 0x0000FFFF);
    int keyState = (keyFlags & 0xFF00) >> 8;
    int keyRepeat = keyFlags & 0x1;

    // 0xA is key down; key up is delivered separately and never acted on.
    if (keyState != 0xA) {
        return event;
    }

    if (goMediaKeyEvent(keyCode, keyRepeat)) {
        return NULL; // suppress
    }
    return event;
}

static int startMediaKeyTap() {
    tapPort = CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap,
        kCGEventTapOptionDefault, CGEventMaskBit(kSystemDefinedEventType),
        mediaKeyTapCallback, NULL);
    if (tapPort == NULL) {
        return 0;
    }

    tapRunLoop = CFRunLoopGetCurrent();
    CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tapPort, 0);
    CFRunLoopAddSource(tapRunLoop, source, kCFRunLoopCommonModes);
    CFRelease(source);
    CGEventTapEnable(tapPort, true);
    return 1;
}

static void runMediaKeyLoop() {
    CFRunLoopRun();
}

static void stopMediaKeyTap() {
    if (tapPort != NULL) {
        CGEventTapEnable(tapPort, false);
        CFRelease(tapPort);
        tapPort = NULL;
    }
    if (tapRunLoop != NULL) {
        CFRunLoopStop(tapRunLoop);
        tapRunLoop = NULL;
    }
}
*/
import "C"

import (
	"errors"
	"runtime"
	"sync"
)

type darwinTap struct {
	handler Handler
}

var (
	tapMu     sync.Mutex
	globalTap *darwinTap
)

// New creates the macOS media-key tap. It requires accessibility
// permission; without it the tap cannot be created.
func New() (Tap, error) {
	return &darwinTap{}, nil
}

//export goMediaKeyEvent
func goMediaKeyEvent(keyCode, isRepeat C.int) C.int {
	tapMu.Lock()
	t := globalTap
	tapMu.Unlock()

	if t == nil || t.handler == nil {
		return 0
	}
	if t.handler(Event{Code: int(keyCode), Repeat: isRepeat == 1}) {
		return 1
	}
	return 0
}

func (t *darwinTap) Start(handler Handler) error {
	tapMu.Lock()
	t.handler = handler
	globalTap = t
	tapMu.Unlock()

	// The event tap needs a run loop; park a locked OS thread on one.
	errCh := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		if C.startMediaKeyTap() == 0 {
			errCh <- errors.New("failed to create media key tap (missing accessibility permission?)")
			return
		}
		errCh <- nil
		C.runMediaKeyLoop()
	}()
	return <-errCh
}

func (t *darwinTap) Stop() error {
	C.stopMediaKeyTap()
	tapMu.Lock()
	globalTap = nil
	tapMu.Unlock()
	return nil
}
