package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/escapekit/internal/domain"
)

const testCredential = "AIza-test-credential"

func testInput() domain.PlanInput {
	return domain.PlanInput{
		Credential:         testCredential,
		Level:              domain.LevelElementary,
		RoomType:           domain.RoomStorytelling,
		LearningObjectives: "분수의 덧셈을 이해한다",
	}
}

func testPlan(puzzles int) *domain.Plan {
	p := &domain.Plan{
		Title:             "사라진 분수 왕국",
		Theme:             "판타지",
		Storyline:         "분수 왕국의 보물이 사라졌다.",
		Flow:              []string{"도입", "전개", "마무리"},
		Conclusion:        "왕국을 구했다!",
		Materials:         []string{"태블릿", "활동지"},
		FinalPasswordHint: "보상의 숫자를 순서대로",
		TeacherGuide: domain.TeacherGuide{
			Preparation:        []string{"QR 코드 인쇄"},
			ImplementationTips: []string{"모둠별 진행"},
			Differentiation:    "힌트 카드 제공",
		},
	}
	var password strings.Builder
	for i := 0; i < puzzles; i++ {
		p.Puzzles = append(p.Puzzles, domain.Puzzle{
			PuzzleTitle:         fmt.Sprintf("퍼즐 %d", i+1),
			Description:         fmt.Sprintf("설명 %d", i+1),
			ConnectionToContent: fmt.Sprintf("연계 %d", i+1),
			Reward:              fmt.Sprintf("열쇠%d", i+1),
		})
		fmt.Fprintf(&password, "%d", i+1)
	}
	p.FinalPassword = password.String()
	return p
}

func TestNewSession(t *testing.T) {
	sess := NewSession(testInput(), time.Second)
	defer sess.close()

	if sess.ID == "" {
		t.Error("ID should not be empty")
	}
	status, msg := sess.Status()
	if status != StatusAbsent {
		t.Errorf("Status = %q; want %q", status, StatusAbsent)
	}
	if msg != "" {
		t.Errorf("error = %q; want empty", msg)
	}
	if _, err := sess.Plan(); !errors.Is(err, domain.ErrPlanNotReady) {
		t.Errorf("Plan() error = %v; want ErrPlanNotReady", err)
	}
	if _, err := sess.Assets(); !errors.Is(err, domain.ErrPlanNotReady) {
		t.Errorf("Assets() error = %v; want ErrPlanNotReady", err)
	}
}

func TestSession_PlanLifecycle(t *testing.T) {
	sess := NewSession(testInput(), time.Second)
	defer sess.close()

	if err := sess.beginPlan(); err != nil {
		t.Fatalf("beginPlan() error = %v", err)
	}
	if err := sess.beginPlan(); !errors.Is(err, ErrInFlight) {
		t.Errorf("second beginPlan() error = %v; want ErrInFlight", err)
	}

	sess.setPlan(testPlan(3), nil)
	first, _ := sess.Assets()
	_ = first.Begin(PuzzleKey(0, KindImage), false)
	_ = first.Succeed(PuzzleKey(0, KindImage), "image prompt")

	// a failed regeneration keeps the earlier plan
	_ = sess.beginPlan()
	sess.failPlan("failed")
	status, msg := sess.Status()
	if status != StatusFailed || msg != "failed" {
		t.Errorf("Status() = %q, %q; want %q, %q", status, msg, StatusFailed, "failed")
	}
	if _, err := sess.Plan(); err != nil {
		t.Errorf("Plan() error = %v; earlier plan should be kept", err)
	}

	// a new plan discards every asset of the old one
	_ = sess.beginPlan()
	sess.setPlan(testPlan(4), nil)
	second, _ := sess.Assets()
	if second == first {
		t.Fatal("setPlan() should replace the asset store")
	}
	slot, err := second.Slot(PuzzleKey(0, KindImage))
	if err != nil {
		t.Fatalf("Slot() error = %v", err)
	}
	if slot.State != StateAbsent || slot.Result != "" {
		t.Errorf("slot = %+v; want fresh absent slot", slot)
	}
	if _, err := second.Slot(PuzzleKey(3, KindWebApp)); err != nil {
		t.Errorf("Slot(puzzle 3) error = %v; store should cover four puzzles", err)
	}
}

func TestSession_ViewOmitsCredential(t *testing.T) {
	sess := NewSession(testInput(), time.Second)
	defer sess.close()
	_ = sess.beginPlan()
	sess.setPlan(testPlan(3), nil)

	data, err := json.Marshal(sess.View())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), testCredential) {
		t.Error("serialised view contains the credential")
	}

	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v.Status != StatusReady {
		t.Errorf("Status = %q; want %q", v.Status, StatusReady)
	}
	if v.Level != "초등" {
		t.Errorf("Level = %q; want %q", v.Level, "초등")
	}
	if len(v.Assets) != 12 {
		t.Errorf("len(Assets) = %d; want 12", len(v.Assets))
	}
}

func TestSession_TextCopied(t *testing.T) {
	sess := NewSession(testInput(), time.Hour)
	defer sess.close()

	sess.markTextCopied("puzzle:1")
	sess.markTextCopied("full")

	got := sess.View().TextCopied
	want := []string{"full", "puzzle:1"}
	if len(got) != len(want) {
		t.Fatalf("TextCopied = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TextCopied[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(time.Hour)
	defer reg.Close()

	sess := NewSession(testInput(), time.Second)
	reg.Put(sess)

	got, err := reg.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != sess {
		t.Error("Get() returned a different session")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d; want 1", reg.Len())
	}

	if err := reg.Delete(sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := reg.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after Delete error = %v; want ErrSessionNotFound", err)
	}
	if err := reg.Delete(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete() error = %v; want ErrSessionNotFound", err)
	}
}

func TestRegistry_Sweep(t *testing.T) {
	reg := NewRegistry(time.Minute)
	defer reg.Close()

	idle := NewSession(testInput(), time.Second)
	active := NewSession(testInput(), time.Second)
	reg.Put(idle)
	reg.Put(active)

	now := time.Now()
	idle.mu.Lock()
	idle.updatedAt = now.Add(-2 * time.Minute)
	idle.mu.Unlock()

	if n := reg.Sweep(now); n != 1 {
		t.Errorf("Sweep() = %d; want 1", n)
	}
	if _, err := reg.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Error("idle session should be evicted")
	}
	if _, err := reg.Get(active.ID); err != nil {
		t.Errorf("active session evicted: %v", err)
	}
}

func TestSlotKey(t *testing.T) {
	tests := []struct {
		key   SlotKey
		str   string
		owner string
		valid bool
	}{
		{PuzzleKey(0, KindImage), "puzzle:0/image", "puzzle:0", true},
		{PuzzleKey(2, KindWebApp), "puzzle:2/webapp", "puzzle:2", true},
		{PlanKey(KindZepAdvice), "plan/zep_advice", "zep", true},
		{PlanKey(KindZepBackground), "plan/zep_background", "zep", true},
		{PlanKey(KindFinalWebApp), "plan/final_webapp", "final", true},
		{PlanKey(KindImage), "plan/image", "puzzle:-1", false},
		{PuzzleKey(1, KindFinalWebApp), "puzzle:1/final_webapp", "final", false},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := tt.key.String(); got != tt.str {
				t.Errorf("String() = %q; want %q", got, tt.str)
			}
			if got := tt.key.Owner(); got != tt.owner {
				t.Errorf("Owner() = %q; want %q", got, tt.owner)
			}
			if got := tt.key.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v; want %v", got, tt.valid)
			}
		})
	}
}

func TestParseAssetKind(t *testing.T) {
	if k, err := ParseAssetKind(" WebApp "); err != nil || k != KindWebApp {
		t.Errorf("ParseAssetKind() = %q, %v; want %q", k, err, KindWebApp)
	}
	if _, err := ParseAssetKind("video"); !errors.Is(err, domain.ErrInput) {
		t.Errorf("ParseAssetKind(video) error = %v; want ErrInput", err)
	}
}
