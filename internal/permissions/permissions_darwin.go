//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation -framework Cocoa
#import <AVFoundation/AVFoundation.h>
#import <Cocoa/Cocoa.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}

int checkAccessibilityPermission() {
    NSDictionary *options = @{(__bridge id)kAXTrustedCheckOptionPrompt: @YES};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}
*/
import "C"

import "fmt"

const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

// CheckMicrophone returns the current microphone permission status
func CheckMicrophone() int {
	return int(C.checkMicrophonePermission())
}

// RequestMicrophone triggers the system microphone permission dialog
func RequestMicrophone() {
	C.requestMicrophonePermission()
}

// CheckAccessibility reports whether global hotkeys may be registered. It
// prompts the user the first time it is called without the permission.
func CheckAccessibility() bool {
	return int(C.checkAccessibilityPermission()) == 1
}

// EnsurePermissions checks microphone access, which capture needs, and
// accessibility access, which the global hotkey needs.
func EnsurePermissions() error {
	switch CheckMicrophone() {
	case PermissionAuthorized:
	case PermissionNotDetermined:
		RequestMicrophone()
		return fmt.Errorf("%w: approve the microphone prompt and restart", ErrMicrophone)
	default:
		return fmt.Errorf("%w: enable it in System Settings > Privacy & Security > Microphone", ErrMicrophone)
	}

	if !CheckAccessibility() {
		return fmt.Errorf("%w: enable it in System Settings > Privacy & Security > Accessibility", ErrAccessibility)
	}
	return nil
}
