package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/finalapps/orbit/internal/config"
	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/events"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

func defaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		SpeedMax:       40,
		SpeedFloor:     5,
		QualityMax:     30,
		OutcomeMax:     30,
		OutcomeNeutral: 15,
		MinBodyChars:   40,
		MaxBodyChars:   4000,
	}
}

func newScoringFixture() (*memStore, *ScoringService) {
	store := newMemStore()
	svc := NewScoringService(ScoringDependencies{
		InquiryRepo:  &fakeInquiryRepo{store: store},
		OperatorRepo: &fakeOperatorRepo{store: store},
		ReplyRepo:    &fakeReplyRepo{store: store},
		ActivityRepo: &fakeActivityRepo{store: store},
		Dispatcher:   events.NewInMemoryDispatcher(),
		Scoring:      defaultScoringConfig(),
		Logger:       zap.NewNop(),
	})
	return store, svc
}

func TestSpeedScoreDecaysAcrossBandwidth(t *testing.T) {
	cfg := defaultScoringConfig()

	if got := SpeedScore(cfg, 0, 240); got != 40 {
		t.Fatalf("immediate reply scored %d, want 40", got)
	}
	// 30 of 240 minutes used: 40 - 30*35/240 = 36
	if got := SpeedScore(cfg, 30, 240); got != 36 {
		t.Fatalf("early reply scored %d, want 36", got)
	}
	// halfway: 40 - 120*35/240 = 22
	if got := SpeedScore(cfg, 120, 240); got != 22 {
		t.Fatalf("halfway reply scored %d, want 22", got)
	}
	if got := SpeedScore(cfg, 240, 240); got != 5 {
		t.Fatalf("deadline reply scored %d, want floor 5", got)
	}
	if got := SpeedScore(cfg, 999, 240); got != 5 {
		t.Fatalf("late reply scored %d, want floor 5", got)
	}
}

func TestQualityScoreRewardsSubstance(t *testing.T) {
	cfg := defaultScoringConfig()

	if got := QualityScore(cfg, ""); got != 0 {
		t.Fatalf("empty body scored %d, want 0", got)
	}
	short := QualityScore(cfg, "try the api")
	full := QualityScore(cfg, strings.Repeat("a detailed explanation. ", 10))
	if short >= full {
		t.Fatalf("short body %d should score below a substantial one %d", short, full)
	}
	if full > cfg.QualityMax {
		t.Fatalf("quality %d exceeds cap %d", full, cfg.QualityMax)
	}
}

func TestOutcomeScoreDefaultsToNeutral(t *testing.T) {
	cfg := defaultScoringConfig()
	if got := OutcomeScore(cfg, nil); got != 15 {
		t.Fatalf("nil outcome scored %d, want neutral 15", got)
	}
	high := 99
	if got := OutcomeScore(cfg, &high); got != 30 {
		t.Fatalf("overflow outcome scored %d, want clamp 30", got)
	}
	negative := -7
	if got := OutcomeScore(cfg, &negative); got != 0 {
		t.Fatalf("negative outcome scored %d, want 0", got)
	}
}

func TestSubmitReplyScoresAndAggregates(t *testing.T) {
	store, svc := newScoringFixture()
	store.addOperator("op-1", true, nil)

	now := time.Now()
	inquiry := seedAssigned(store, "op-1", now.Add(210*time.Minute)) // assigned 30 minutes ago

	body := strings.Repeat("check the subscription billing settings. ", 5)
	reply, err := svc.SubmitReply(context.Background(), ReplyInput{
		InquiryID:  inquiry.ID,
		OperatorID: "op-1",
		Body:       body,
	}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if reply.ScoreSpeed != 36 {
		t.Fatalf("speed %d, want 36 for a 30 minute reply", reply.ScoreSpeed)
	}
	if reply.ScoreOutcome != 15 {
		t.Fatalf("outcome %d, want neutral 15", reply.ScoreOutcome)
	}
	if reply.TotalScore != reply.ScoreSpeed+reply.ScoreQuality+reply.ScoreOutcome {
		t.Fatal("total must equal the sum of sub-scores")
	}
	if reply.ReplyTimeMinutes != 30 {
		t.Fatalf("reply time %d, want 30", reply.ReplyTimeMinutes)
	}

	if store.inquiries[inquiry.ID].Status != domain.InquiryStatusReplied {
		t.Fatalf("inquiry status %s, want replied", store.inquiries[inquiry.ID].Status)
	}
	operator := store.operators["op-1"]
	if operator.TotalReplied != 1 {
		t.Fatalf("total replied %d, want 1", operator.TotalReplied)
	}
	if operator.TotalScore != reply.TotalScore {
		t.Fatalf("operator score %d, want %d", operator.TotalScore, reply.TotalScore)
	}
	if operator.AvgReplyTime != 30 {
		t.Fatalf("avg reply time %d, want 30", operator.AvgReplyTime)
	}
}

func TestSubmitReplyRejectsWrongOperator(t *testing.T) {
	store, svc := newScoringFixture()
	store.addOperator("op-1", true, nil)
	store.addOperator("op-2", true, nil)
	inquiry := seedAssigned(store, "op-1", time.Now().Add(time.Hour))

	_, err := svc.SubmitReply(context.Background(), ReplyInput{
		InquiryID:  inquiry.ID,
		OperatorID: "op-2",
		Body:       strings.Repeat("not my assignment but here goes. ", 3),
	}, time.Now())
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestSubmitReplyLosesToConcurrentRetirement(t *testing.T) {
	store, svc := newScoringFixture()
	store.addOperator("op-1", true, nil)
	inquiry := seedAssigned(store, "op-1", time.Now().Add(time.Hour))
	store.inquiries[inquiry.ID].Status = domain.InquiryStatusMissed

	_, err := svc.SubmitReply(context.Background(), ReplyInput{
		InquiryID:  inquiry.ID,
		OperatorID: "op-1",
		Body:       strings.Repeat("too late but trying anyway. ", 3),
	}, time.Now())
	if !apperrors.IsCode(err, "CONTENTION") {
		t.Fatalf("expected CONTENTION, got %v", err)
	}
	if len(store.replies) != 0 {
		t.Fatal("no reply row may exist after a lost transition")
	}
}

func TestSubmitReplyAllowedOnEscalated(t *testing.T) {
	store, svc := newScoringFixture()
	store.addOperator("op-1", true, nil)
	inquiry := seedAssigned(store, "op-1", time.Now().Add(-time.Minute))
	store.inquiries[inquiry.ID].Status = domain.InquiryStatusEscalated

	_, err := svc.SubmitReply(context.Background(), ReplyInput{
		InquiryID:  inquiry.ID,
		OperatorID: "op-1",
		Body:       strings.Repeat("answering after the sweep caught it. ", 3),
	}, time.Now())
	if err != nil {
		t.Fatalf("escalated inquiries accept replies: %v", err)
	}
}

func TestReviseOutcomeRebuildsAggregates(t *testing.T) {
	store, svc := newScoringFixture()
	store.addOperator("op-1", true, nil)
	inquiry := seedAssigned(store, "op-1", time.Now().Add(time.Hour))

	reply, err := svc.SubmitReply(context.Background(), ReplyInput{
		InquiryID:  inquiry.ID,
		OperatorID: "op-1",
		Body:       strings.Repeat("resolved via the partner dashboard. ", 3),
	}, time.Now())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	revised, err := svc.ReviseOutcome(context.Background(), reply.ID, 30)
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	if revised.ScoreOutcome != 30 {
		t.Fatalf("outcome %d, want 30", revised.ScoreOutcome)
	}
	if revised.TotalScore != revised.ScoreSpeed+revised.ScoreQuality+30 {
		t.Fatal("total must track the revised outcome")
	}
	if store.operators["op-1"].TotalScore != revised.TotalScore {
		t.Fatalf("aggregate %d out of sync with history %d",
			store.operators["op-1"].TotalScore, revised.TotalScore)
	}
}

func TestRecomputeMatchesIncrementalAggregates(t *testing.T) {
	store, svc := newScoringFixture()
	store.addOperator("op-1", true, nil)

	for i := 0; i < 3; i++ {
		inquiry := seedAssigned(store, "op-1", time.Now().Add(time.Hour))
		if _, err := svc.SubmitReply(context.Background(), ReplyInput{
			InquiryID:  inquiry.ID,
			OperatorID: "op-1",
			Body:       strings.Repeat("a steady stream of answers. ", 3),
		}, time.Now()); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	incremental := *store.operators["op-1"]
	rebuilt, err := svc.RecomputeOperator(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if rebuilt.TotalScore != incremental.TotalScore || rebuilt.TotalReplied != incremental.TotalReplied {
		t.Fatalf("recompute drifted: %+v vs %+v", rebuilt, incremental)
	}
}
