package secondfactor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeNotifier struct {
	channel string
	err     error
	sent    []string
}

func (f *fakeNotifier) Channel() string { return f.channel }

func (f *fakeNotifier) Send(_ context.Context, to, code string) error {
	f.sent = append(f.sent, to+"|"+code)
	return f.err
}

type fakeSender struct {
	to, subject, html, text string
	err                     error
}

func (f *fakeSender) Send(to, subject, html, text string) error {
	f.to, f.subject, f.html, f.text = to, subject, html, text
	return f.err
}

func TestGeneratedPolicy(t *testing.T) {
	for _, n := range []int{0, 4, 6, 10} {
		code, err := GeneratedPolicy{Length: n}.Generate()
		require.NoError(t, err)
		want := n
		if n == 0 {
			want = DefaultLength
		}
		require.Len(t, code, want)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', code)
		}
	}

	_, err := GeneratedPolicy{Length: 3}.Generate()
	require.Error(t, err)
	_, err = GeneratedPolicy{Length: 11}.Generate()
	require.Error(t, err)
	require.False(t, GeneratedPolicy{}.Insecure())
}

func TestGeneratedPolicy_NotConstant(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := GeneratedPolicy{Length: 8}.Generate()
		require.NoError(t, err)
		seen[code] = true
	}
	require.Greater(t, len(seen), 1)
}

func TestFixedPolicy(t *testing.T) {
	code, err := FixedPolicy{Code: "123456"}.Generate()
	require.NoError(t, err)
	require.Equal(t, "123456", code)
	require.True(t, FixedPolicy{}.Insecure())

	_, err = FixedPolicy{}.Generate()
	require.Error(t, err)
}

func TestIssuer_PrimaryDelivers(t *testing.T) {
	primary := &fakeNotifier{channel: ChannelEmail}
	fallback := &fakeNotifier{channel: ChannelConsole}
	iss, err := NewIssuer(FixedPolicy{Code: "4242"}, primary, fallback)
	require.NoError(t, err)

	got, err := iss.Issue(context.Background(), "admin@x.com")
	require.NoError(t, err)
	require.Equal(t, Issued{Code: "4242", Delivered: true, Channel: ChannelEmail}, got)
	require.Equal(t, []string{"admin@x.com|4242"}, primary.sent)
	require.Empty(t, fallback.sent)
	require.True(t, iss.Insecure())
}

func TestIssuer_FallbackOnFailure(t *testing.T) {
	primary := &fakeNotifier{channel: ChannelEmail, err: errors.New("smtp down")}
	fallback := &fakeNotifier{channel: ChannelConsole}
	iss, err := NewIssuer(GeneratedPolicy{}, primary, fallback)
	require.NoError(t, err)

	got, err := iss.Issue(context.Background(), "admin@x.com")
	require.NoError(t, err)
	require.False(t, got.Delivered)
	require.Equal(t, ChannelConsole, got.Channel)
	require.Len(t, fallback.sent, 1)
	require.Equal(t, "admin@x.com|"+got.Code, fallback.sent[0])
}

func TestIssuer_NoPrimary(t *testing.T) {
	fallback := &fakeNotifier{channel: ChannelConsole}
	iss, err := NewIssuer(GeneratedPolicy{}, nil, fallback)
	require.NoError(t, err)

	got, err := iss.Issue(context.Background(), "admin@x.com")
	require.NoError(t, err)
	require.False(t, got.Delivered)
	require.Len(t, fallback.sent, 1)
}

func TestIssuer_GenerationFailure(t *testing.T) {
	iss, err := NewIssuer(GeneratedPolicy{Length: 2}, nil, &fakeNotifier{channel: ChannelConsole})
	require.NoError(t, err)
	_, err = iss.Issue(context.Background(), "admin@x.com")
	require.Error(t, err)

	_, err = NewIssuer(nil, nil, nil)
	require.Error(t, err)
}

func TestEmailNotifier(t *testing.T) {
	s := &fakeSender{}
	n := &EmailNotifier{Sender: s, AppName: "SchoolDir"}
	require.NoError(t, n.Send(context.Background(), "admin@x.com", "987654"))
	require.Equal(t, "admin@x.com", s.to)
	require.NotEmpty(t, s.subject)
	require.Contains(t, s.text, "987654")
	require.Contains(t, s.html, "987654")

	require.Error(t, (&EmailNotifier{}).Send(context.Background(), "a@x.com", "1"))
}

func TestConsoleNotifier_LogsCode(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	n := &ConsoleNotifier{Logger: zap.New(core)}

	require.NoError(t, n.Send(context.Background(), "admin@x.com", "555111"))
	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "555111", entries[0].ContextMap()["code"])
	require.Equal(t, "a***@x.com", entries[0].ContextMap()["email"])
}
