package calls

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/waddle/internal/export"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func kv(k, v string) export.Field {
	return export.Field{Key: k, Value: export.String(v)}
}

// callMessage builds a call event message the way exports carry them.
func callMessage(msgID, kind, callID, from, arrival, duration string) export.Value {
	content := fmt.Sprintf(`<partlist type="%s" alt="" callId="%s"> <part identity="%s"><name>%s</name>`,
		kind, callID, from, from)
	if duration != "" {
		content += "<duration>" + duration + "</duration>"
	}
	content += "</part> </partlist>"

	return export.Object(
		kv("id", msgID),
		kv("originalarrivaltime", arrival),
		kv("messagetype", "Event/Call"),
		kv("version", "1"),
		export.Field{Key: "properties", Value: export.Object(kv("isserversidegenerated", "True"))},
		kv("from", from),
		kv("content", content),
	)
}

func textMessage(msgID, from, arrival string) export.Value {
	return export.Object(
		kv("id", msgID),
		kv("originalarrivaltime", arrival),
		kv("messagetype", "RichText"),
		kv("from", from),
		kv("content", "hello"),
	)
}

// completeCall returns the started/ended pair of an ordinary same-day call.
func completeCall(n int) []export.Value {
	callID := fmt.Sprintf("filler-call-%04d", n)
	day := fmt.Sprintf("2023-03-%02d", n%28+1)
	return []export.Value{
		callMessage(fmt.Sprintf("16800000%05d", n), "started", callID, "8:alice", day+"T10:00:00.000Z", ""),
		callMessage(fmt.Sprintf("16800001%05d", n), "ended", callID, "8:bob", day+"T10:05:00.000Z", "300"),
	}
}

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}
