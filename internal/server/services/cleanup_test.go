package services

import (
	"context"
	"testing"
	"time"
)

func TestCleanupRun_SweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	sessionsRepo := &fakeSessionsRepo{deleteN: 2}
	tokensRepo := &fakeActionTokensRepo{deleteN: 1}
	rm := &fakeRepoManager{s: sessionsRepo, a: tokensRepo}

	c := NewCleanupService(
		NewSessionService(db, rm, time.Hour, true),
		NewActionTokenService(db, rm, time.Hour),
		testLogger(),
		time.Hour,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}

	if !sessionsRepo.swept || !tokensRepo.swept {
		t.Fatalf("initial sweep did not run: sessions=%v tokens=%v", sessionsRepo.swept, tokensRepo.swept)
	}
}
