package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"farmvoice/internal/domain"
	"farmvoice/internal/ports"
)

func TestFFMPEGCaptureStartReadAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'hello'\nsleep 2\n")
	capture := NewFFMPEGCapture(script, nil)

	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	buf := make([]byte, 8)
	n, readErr := session.Read(buf)
	if n <= 0 {
		t.Fatalf("expected audio bytes, got n=%d err=%v", n, readErr)
	}
	if !strings.Contains(string(buf[:n]), "hello") {
		t.Fatalf("unexpected bytes: %q", string(buf[:n]))
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := session.Stop(); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}

func TestFFMPEGCaptureStartEarlyExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'boom' 1>&2\nexit 1\n")
	capture := NewFFMPEGCapture(script, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := capture.Start(ctx, ports.AudioConfig{})
	if err == nil {
		t.Fatalf("expected early exit error")
	}
	if !strings.Contains(err.Error(), "exited before capture started") || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected error: %v", err)
	}
	if errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("generic failure must not be classified as permission denial")
	}
}

func TestFFMPEGCapturePermissionDenied(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "denied.sh", "#!/usr/bin/env bash\necho 'default: Permission denied' 1>&2\nexit 1\n")
	capture := NewFFMPEGCapture(script, nil)

	_, err := capture.Start(context.Background(), ports.AudioConfig{})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denial, got %v", err)
	}
	if domain.KindOf(err) != domain.ErrorKindPermissionDenied {
		t.Fatalf("unexpected kind: %s", domain.KindOf(err))
	}
}

func TestFFMPEGCaptureMissingBinary(t *testing.T) {
	t.Parallel()

	capture := NewFFMPEGCapture(filepath.Join(t.TempDir(), "no-such-ffmpeg"), nil)
	_, err := capture.Start(context.Background(), ports.AudioConfig{})
	if !errors.Is(err, domain.ErrCaptureUnavailable) {
		t.Fatalf("expected missing binary to be unavailable, got %v", err)
	}
	if domain.KindOf(err) != domain.ErrorKindCaptureUnavailable {
		t.Fatalf("unexpected kind: %s", domain.KindOf(err))
	}
}

func TestCaptureArgsUsesDefaults(t *testing.T) {
	t.Parallel()

	args := strings.Join(captureArgs(withCaptureDefaults(ports.AudioConfig{})), " ")
	for _, want := range []string{"-f pulse", "-i default", "-ac 1", "-ar 16000", "-f s16le"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
}

func TestClassifyEarlyExit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		stderr     string
		permission bool
	}{
		{stderr: "Operation not permitted", permission: true},
		{stderr: "ALSA: access denied by policy", permission: true},
		{stderr: "microphone not authorized", permission: true},
		{stderr: "No such device", permission: false},
	}
	for _, tc := range cases {
		err := classifyEarlyExit(errors.New("exit status 1"), tc.stderr)
		if got := errors.Is(err, domain.ErrPermissionDenied); got != tc.permission {
			t.Fatalf("stderr %q: permission=%t, want %t", tc.stderr, got, tc.permission)
		}
	}
	if err := classifyEarlyExit(nil, ""); err == nil {
		t.Fatalf("expected error for clean early exit")
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-lc", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
}

func TestStringsTrimSpaceSafe(t *testing.T) {
	t.Parallel()

	if got := stringsTrimSpaceSafe("  hi\n"); got != "hi" {
		t.Fatalf("unexpected trim result: %q", got)
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
