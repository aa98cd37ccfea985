package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/eventforge/internal/clients/llm"
	"github.com/yungbote/eventforge/internal/config"
	"github.com/yungbote/eventforge/internal/data/repos"
	"github.com/yungbote/eventforge/internal/data/repos/testutil"
	"github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/feed"
	"github.com/yungbote/eventforge/internal/generator"
	"github.com/yungbote/eventforge/internal/pkg/dbctx"
	"github.com/yungbote/eventforge/internal/sources"
)

type fakeGen struct {
	available bool
	fail      error
	creative  int
}

func (f *fakeGen) Available() bool { return f.available }

func (f *fakeGen) GenerateCreative(_ context.Context, req generator.CreativeRequest) (*events.DynamicEvent, error) {
	if !f.available {
		return nil, &events.GenerationError{Stage: "gateway", Err: llm.ErrUnavailable}
	}
	if f.fail != nil {
		return nil, f.fail
	}
	f.creative++
	ev := testutil.NewEvent(events.OriginCreative, "creative", req.Rank, req.Rank)
	ev.ID = uuid.New()
	ev.LLMEnhanced = true
	return &ev, nil
}

func (f *fakeGen) TransformNews(_ context.Context, items []events.NewsItem) ([]events.GeneratedEvent, generator.Report) {
	rep := generator.Report{Total: len(items)}
	if !f.available {
		rep.Unavailable = true
		return nil, rep
	}
	var out []events.GeneratedEvent
	for _, it := range items {
		date := it.Date()
		out = append(out, events.GeneratedEvent{
			Event:      testutil.NewEvent(events.OriginNews, it.Title, events.RankUndergraduate, events.RankProfessor),
			Provenance: &events.Provenance{URL: it.URL, Title: it.Title, Date: &date},
		})
	}
	rep.Generated = len(out)
	return out, rep
}

type fakeFetcher struct {
	res feed.Result
}

func (f *fakeFetcher) FetchAll(context.Context, *sources.Registry) feed.Result { return f.res }

type fixture struct {
	repo     repos.EventRepo
	gen      *fakeGen
	events   EventService
	pipeline PipelineService
}

func newFixture(t *testing.T, gen *fakeGen, fetcher NewsFetcher) fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	p := config.Default()
	repo := repos.NewEventRepo(db, log)
	fb := NewFallbacks(p.Presets, log)
	cfg := PoolConfig{
		Mix:                 p.PoolMix,
		Decay:               p.Decay,
		Cleanup:             p.Cleanup,
		ReplenishMinPerRank: 1,
		ReplenishMaxPerRun:  3,
	}
	if fetcher == nil {
		fetcher = &fakeFetcher{}
	}
	return fixture{
		repo:     repo,
		gen:      gen,
		events:   NewEventService(log, repo, gen, fb, cfg, nil),
		pipeline: NewPipelineService(log, sources.NewRegistry(p, log), fetcher, gen, repo, fb, cfg, nil),
	}
}

func TestNextFallsBackToPresetWhenStoreEmpty(t *testing.T) {
	fx := newFixture(t, &fakeGen{}, nil)
	sel, err := fx.events.Next(context.Background(), events.RankPhD)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !sel.Fallback || sel.Event.Origin != events.OriginFixed {
		t.Fatalf("want preset fallback, got=%+v", sel)
	}
	if err := fx.events.RecordUsage(context.Background(), sel.Event.ID, "ada", events.RankPhD, 0); err != nil {
		t.Fatalf("usage of fallback must be accepted: %v", err)
	}
}

func TestNextServesStoredEvents(t *testing.T) {
	fx := newFixture(t, &fakeGen{}, nil)
	ctx := context.Background()
	if n, err := fx.pipeline.Seed(ctx); err != nil || n == 0 {
		t.Fatalf("Seed: n=%d err=%v", n, err)
	}
	if n, err := fx.pipeline.Seed(ctx); err != nil || n != 0 {
		t.Fatalf("second Seed: n=%d err=%v", n, err)
	}
	sel, err := fx.events.Next(ctx, events.RankMaster)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if sel.Fallback {
		t.Fatalf("seeded store should serve stored events")
	}
	if err := fx.events.RecordUsage(ctx, sel.Event.ID, "ada", events.RankMaster, 2); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	got, err := fx.repo.GetByID(dbctx.New(ctx), sel.Event.ID)
	if err != nil || got.UsageCount != 1 {
		t.Fatalf("usage not recorded: ev=%+v err=%v", got, err)
	}
}

func TestNextRejectsInvalidRank(t *testing.T) {
	fx := newFixture(t, &fakeGen{}, nil)
	_, err := fx.events.Next(context.Background(), events.Rank(42))
	var vErr *events.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("want ValidationError got=%v", err)
	}
}

func TestCreativeFallsBackWhenUnavailable(t *testing.T) {
	fx := newFixture(t, &fakeGen{available: false}, nil)
	sel, err := fx.events.Creative(context.Background(), generator.CreativeRequest{Rank: events.RankPostdoc})
	if err != nil {
		t.Fatalf("Creative: %v", err)
	}
	if !sel.Fallback || sel.Event.Origin != events.OriginCreative {
		t.Fatalf("want preset creative, got=%+v", sel)
	}
}

func TestCreativeStoresGeneratedEvent(t *testing.T) {
	fx := newFixture(t, &fakeGen{available: true}, nil)
	ctx := context.Background()
	sel, err := fx.events.Creative(ctx, generator.CreativeRequest{Rank: events.RankPostdoc})
	if err != nil || sel.Fallback {
		t.Fatalf("Creative: sel=%+v err=%v", sel, err)
	}
	if _, err := fx.repo.GetByID(dbctx.New(ctx), sel.Event.ID); err != nil {
		t.Fatalf("creative event not stored: %v", err)
	}
}

func TestRunGenerationSavesTransformedItems(t *testing.T) {
	fetcher := &fakeFetcher{res: feed.Result{
		Items: []events.NewsItem{
			{Title: "Grant freeze", URL: "https://example.com/1", SourceName: "s", SourceCategory: events.CategoryGeneral, SourceWeight: 1},
			{Title: "Tuition rises", URL: "https://example.com/2", SourceName: "s", SourceCategory: events.CategoryGeneral, SourceWeight: 1},
		},
		Errors:   []error{&events.SourceUnavailableError{Source: "down", Err: errors.New("503")}},
		Rejected: 4,
	}}
	fx := newFixture(t, &fakeGen{available: true}, fetcher)
	sum, err := fx.pipeline.RunGeneration(context.Background())
	if err != nil {
		t.Fatalf("RunGeneration: %v", err)
	}
	if sum.Saved != 2 || sum.SourceErrors != 1 || sum.Rejected != 4 {
		t.Fatalf("summary: %+v", sum)
	}
	counts, _ := fx.repo.CountByOrigin(dbctx.New(context.Background()))
	if counts[events.OriginNews] != 2 {
		t.Fatalf("news stored: %+v", counts)
	}
}

func TestRunGenerationWithModelDisabled(t *testing.T) {
	fetcher := &fakeFetcher{res: feed.Result{Items: []events.NewsItem{{Title: "x", URL: "u"}}}}
	fx := newFixture(t, &fakeGen{available: false}, fetcher)
	sum, err := fx.pipeline.RunGeneration(context.Background())
	if err != nil || !sum.ModelDisabled || sum.Saved != 0 {
		t.Fatalf("summary=%+v err=%v", sum, err)
	}
}

func TestRunReplenishRespectsBudget(t *testing.T) {
	gen := &fakeGen{available: true}
	fx := newFixture(t, gen, nil)
	sum, err := fx.pipeline.RunReplenish(context.Background())
	if err != nil {
		t.Fatalf("RunReplenish: %v", err)
	}
	if len(sum.Short) != len(events.AllRanks()) {
		t.Fatalf("short ranks: want=%d got=%d", len(events.AllRanks()), len(sum.Short))
	}
	if sum.Requested != 3 || sum.Saved != 3 || gen.creative != 3 {
		t.Fatalf("budget not honoured: %+v calls=%d", sum, gen.creative)
	}
}

func TestRunReplenishWithoutModel(t *testing.T) {
	fx := newFixture(t, &fakeGen{available: false}, nil)
	sum, err := fx.pipeline.RunReplenish(context.Background())
	if err != nil {
		t.Fatalf("RunReplenish: %v", err)
	}
	if sum.Requested != 0 || len(sum.Short) == 0 {
		t.Fatalf("summary: %+v", sum)
	}
}

func TestRunCleanupOnEmptyStore(t *testing.T) {
	fx := newFixture(t, &fakeGen{}, nil)
	n, err := fx.pipeline.RunCleanup(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("RunCleanup: n=%d err=%v", n, err)
	}
}
