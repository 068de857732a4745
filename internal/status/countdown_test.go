package status

import (
	"context"
	"testing"
	"time"
)

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-3 * time.Second, "00:00:00"},
		{5 * time.Second, "00:00:05"},
		{1500 * time.Millisecond, "00:00:02"},
		{time.Nanosecond, "00:00:01"},
		{59*time.Minute + 59*time.Second + 500*time.Millisecond, "01:00:00"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{26 * time.Hour, "26:00:00"},
	}
	for _, tc := range cases {
		if got := FormatRemaining(tc.in); got != tc.want {
			t.Errorf("FormatRemaining(%s) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestCountdownFiresOnceAtZero(t *testing.T) {
	clk := newFakeClock()
	fired := 0
	cd := NewCountdown(clk.Now().Add(5*time.Second), func() { fired++ })

	want := []string{"00:00:05", "00:00:04", "00:00:03", "00:00:02", "00:00:01", "00:00:00", "00:00:00", "00:00:00", "00:00:00"}
	for i, w := range want {
		now := clk.Now()
		if got := cd.Tick(now); got != w {
			t.Fatalf("tick %d: expected %s got %s", i, w, got)
		}
		clk.Advance(time.Second)
	}

	if fired != 1 {
		t.Fatalf("expected onExpire once, fired %d times", fired)
	}
	if !cd.Expired() {
		t.Fatal("expected countdown to report expired")
	}
}

func TestCountdownShowsZeroOnlyWhenExpired(t *testing.T) {
	clk := newFakeClock()
	fired := 0
	cd := NewCountdown(clk.Now().Add(500*time.Millisecond), func() { fired++ })

	if got := cd.Tick(clk.Now()); got != "00:00:01" || fired != 0 {
		t.Fatalf("half a second left: got %s, fired %d", got, fired)
	}
	if got := cd.Tick(clk.Advance(500 * time.Millisecond)); got != "00:00:00" || fired != 1 {
		t.Fatalf("at the deadline: got %s, fired %d", got, fired)
	}
}

func TestCountdownAlreadyPast(t *testing.T) {
	clk := newFakeClock()
	fired := 0
	cd := NewCountdown(clk.Now().Add(-time.Minute), func() { fired++ })
	if got := cd.Tick(clk.Now()); got != "00:00:00" {
		t.Fatalf("expected 00:00:00 got %s", got)
	}
	cd.Tick(clk.Advance(time.Second))
	if fired != 1 {
		t.Fatalf("expected one expiry, got %d", fired)
	}
}

func TestCountdownRun(t *testing.T) {
	clk := newFakeClock()
	expired := make(chan struct{}, 4)
	displays := make(chan string, 16)
	cd := NewCountdown(clk.Now().Add(2*time.Second),
		func() { expired <- struct{}{} },
		WithCountdownClock(clk),
		WithTickHandler(func(s string) { displays <- s }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		cd.Run(ctx)
		close(finished)
	}()

	if got := <-displays; got != "00:00:02" {
		t.Fatalf("expected 00:00:02 got %s", got)
	}
	tk := clk.waitTicker(t, 0)
	for i := 0; i < 4; i++ {
		tk.ch <- clk.Advance(time.Second)
		<-displays
	}

	cancel()
	<-finished

	if n := len(expired); n != 1 {
		t.Fatalf("expected onExpire once, got %d", n)
	}
}

func TestCountdownExpiresPoller(t *testing.T) {
	clk := newFakeClock()
	f := newScriptedFetcher(reply{tx: pending()})
	updates := make(chan Update, 8)
	p := NewPoller("TRX-1", f, WithClock(clk), WithUpdateHandler(func(u Update) { updates <- u }))

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()
	<-updates

	cd := NewCountdown(clk.Now().Add(time.Second), p.Expire)
	cd.Tick(clk.Now())
	cd.Tick(clk.Advance(time.Second))

	u := <-updates
	if u.State != StateFailed || !u.Expired || u.Trigger != EventExpired {
		t.Fatalf("unexpected update %+v", u)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("run: %v", err)
	}
	if f.statusCalls() != 1 {
		t.Fatalf("expected no fetch after expiry, got %d calls", f.statusCalls())
	}
}
