package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/felixgeelhaar/escapekit/internal/config"
	"github.com/felixgeelhaar/escapekit/internal/daemon"
	"github.com/felixgeelhaar/escapekit/internal/domain"
	"github.com/felixgeelhaar/escapekit/internal/export"
	"github.com/felixgeelhaar/escapekit/internal/session"
	"golang.org/x/sync/errgroup"
)

type planOptions struct {
	input  domain.PlanInput
	assets bool
	outDir string
	copy   bool
	format string
}

func parsePlanFlags(args []string, stderr io.Writer) (planOptions, error) {
	var opts planOptions
	var level, roomType string

	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&level, "level", "", "school level: 초등, 중등, 고등 (or elementary, middle, high)")
	fs.StringVar(&roomType, "type", "", "escape room type: 스토리텔링형, 문제방, 탐사/모험형, 미스터리/추리형, 역사/시대극형")
	fs.StringVar(&opts.input.LearningObjectives, "objectives", "", "learning objectives (required)")
	fs.StringVar(&opts.input.AchievementStandards, "standards", "", "achievement standards")
	fs.StringVar(&opts.input.LearningContent, "content", "", "learning content")
	fs.StringVar(&opts.input.PuzzleIdeas, "ideas", "", "puzzle ideas")
	fs.StringVar(&opts.input.EvaluationMethods, "evaluation", "", "evaluation methods")
	fs.BoolVar(&opts.assets, "assets", false, "generate every asset of the plan")
	fs.StringVar(&opts.outDir, "out", "", "directory to save the plan and its assets")
	fs.BoolVar(&opts.copy, "copy", false, "copy the full plan text to the system clipboard")
	fs.StringVar(&opts.format, "format", "text", "plan output format: text or yaml")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if level != "" {
		l, err := domain.ParseSchoolLevel(level)
		if err != nil {
			return opts, err
		}
		opts.input.Level = l
	}
	if roomType != "" {
		t, err := domain.ParseRoomType(roomType)
		if err != nil {
			return opts, err
		}
		opts.input.RoomType = t
	}
	if opts.format != "text" && opts.format != "yaml" {
		return opts, fmt.Errorf("%w: unsupported format %q", domain.ErrInput, opts.format)
	}
	return opts, nil
}

// cmdPlan generates a plan, optionally with every asset, without the daemon
func cmdPlan(args []string) error {
	opts, err := parsePlanFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	if err := config.LoadDotEnv(".env", filepath.Join(dir, ".env")); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	opts.input.Credential = os.Getenv(config.CredentialEnv)

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.outDir == "" {
		opts.outDir = cfg.Export.OutDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	engine, err := daemon.NewEngine(cfg, daemon.EngineOptions{Logger: logger})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(os.Stderr, "계획을 생성하는 중입니다...")
	sess, err := engine.Sessions.Create(ctx, opts.input)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return errors.New(vErr.Message)
		}
		if errors.Is(err, domain.ErrGeneration) {
			return fmt.Errorf("%s (%w)", session.PlanFailureMessage, err)
		}
		return err
	}

	plan, err := sess.Plan()
	if err != nil {
		return err
	}

	planArtifact := export.TextArtifact(plan.Title, export.RenderFullPlanText(plan))
	if opts.format == "yaml" {
		planArtifact, err = export.YAMLArtifact(plan)
		if err != nil {
			return err
		}
	}
	fmt.Println(string(planArtifact.Body))

	for _, w := range sess.View().Warnings {
		fmt.Fprintf(os.Stderr, "⚠ %s\n", w.Message)
	}

	if opts.copy {
		copyToClipboard(export.RenderFullPlanText(plan))
	}

	if opts.assets {
		generateAllAssets(ctx, os.Stderr, engine.Sessions, sess, cfg.Resilience.MaxConcurrent)
	}

	if opts.outDir != "" {
		return saveSession(opts.outDir, sess, planArtifact)
	}
	return nil
}

// generateAllAssets runs every slot of the plan, at most limit at a time,
// reporting progress to w. A failed asset is reported and does not stop
// the others.
func generateAllAssets(ctx context.Context, w io.Writer, svc session.SessionService, sess *session.Session, limit int) {
	store, err := sess.Assets()
	if err != nil {
		return
	}
	slots, _ := store.Snapshot()

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	report := func(format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	report("자료 %d개를 생성하는 중입니다...\n", len(slots))
	for _, slot := range slots {
		key := slot.Key
		g.Go(func() error {
			if _, err := svc.GenerateAsset(ctx, sess.ID, key, false); err != nil {
				report("✗ %s: %s\n", key, session.FailureMessages[key.Kind])
				return nil
			}
			report("✓ %s\n", key)
			return nil
		})
	}
	_ = g.Wait()
}

// saveSession writes the plan and every ready asset into dir
func saveSession(dir string, sess *session.Session, planArtifact export.Artifact) error {
	path, err := export.WriteFile(dir, planArtifact)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved %s\n", path)

	plan, err := sess.Plan()
	if err != nil {
		return err
	}
	store, err := sess.Assets()
	if err != nil {
		return err
	}

	slots, _ := store.Snapshot()
	for _, slot := range slots {
		if slot.State != session.StateReady {
			continue
		}
		artifact, err := session.AssetArtifact(plan, slot)
		if err != nil {
			return err
		}
		path, err := export.WriteFile(dir, artifact)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %s\n", path)
	}
	return nil
}

func copyToClipboard(text string) {
	clip, err := export.NewSystemClipboard()
	if err == nil {
		err = clip.Write(text)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ 클립보드에 복사하지 못했습니다: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, "✓ 클립보드에 복사했습니다")
}
