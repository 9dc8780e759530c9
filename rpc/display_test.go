package rpc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDisplay_RoutesOnSeverityOnly(t *testing.T) {
	tests := []struct {
		severity    Severity
		wantChannel string // "" means log only
		wantLevel   string
	}{
		{SeverityNone, "", "level=DEBUG"},
		{SeverityInfo, "info", "level=INFO"},
		{SeverityWarning, "warn", "level=WARN"},
		{SeverityError, "error", "level=ERROR"},
	}

	for _, tt := range tests {
		for _, isError := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/is_error=%v", tt.severity, isError), func(t *testing.T) {
				log, buf := newCaptureLogger()
				n := &recordingNotifier{}

				Display(log, n, Response{IsError: isError, Severity: tt.severity, Message: "hello"})

				if tt.wantChannel == "" {
					assert.Empty(t, n.all())
				} else {
					assert.Equal(t, []note{{tt.wantChannel, "hello"}}, n.all())
				}

				lines := buf.lines()
				require.Len(t, lines, 1)
				assert.Contains(t, lines[0], tt.wantLevel)
				assert.Contains(t, lines[0], "CUBENSIS "+tt.severity.String())
				assert.Contains(t, lines[0], "message=hello")
				assert.Equal(t, isError, strings.Contains(lines[0], "[ERROR]"))
			})
		}
	}
}

func TestDisplay_ErrorMarkerProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		resp := Response{
			IsError:  rapid.Bool().Draw(t, "isError"),
			Severity: Severity(rapid.IntRange(0, 3).Draw(t, "severity")),
			Message:  rapid.StringMatching(`[a-z ]{0,20}`).Draw(t, "message"),
		}
		log, buf := newCaptureLogger()
		n := &recordingNotifier{}

		Display(log, n, resp)

		if got := strings.Contains(buf.String(), "[ERROR]"); got != resp.IsError {
			t.Fatalf("[ERROR] marker present=%v, is_error=%v: %s", got, resp.IsError, buf.String())
		}

		// Flipping is_error must not change where the message went.
		flipped := &recordingNotifier{}
		flippedLog, _ := newCaptureLogger()
		Display(flippedLog, flipped, Response{IsError: !resp.IsError, Severity: resp.Severity, Message: resp.Message})
		if fmt.Sprint(n.all()) != fmt.Sprint(flipped.all()) {
			t.Fatalf("channel depends on is_error: %v vs %v", n.all(), flipped.all())
		}
	})
}

func TestDisplay_UnknownSeverityIsDropped(t *testing.T) {
	log, buf := newCaptureLogger()
	n := &recordingNotifier{}

	Display(log, n, Response{Severity: Severity(9), Message: "??"})

	assert.Empty(t, n.all())
	assert.Contains(t, buf.String(), "unknown severity")
}
