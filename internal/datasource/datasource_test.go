package datasource

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/techtree/pkg/model"
)

type stubGraphClient struct {
	ds    model.GraphDataset
	err   error
	calls []string
}

func (c *stubGraphClient) FetchGraph(_ context.Context, category string) (model.GraphDataset, error) {
	c.calls = append(c.calls, category)
	return c.ds, c.err
}

type stubDetailClient struct {
	detail model.CertificationDetail
	err    error
	ids    []int
}

func (c *stubDetailClient) FetchCertification(_ context.Context, id int) (model.CertificationDetail, error) {
	c.ids = append(c.ids, id)
	return c.detail, c.err
}

type stubCategoryClient struct {
	trees []model.CategoryTree
	err   error
}

func (c stubCategoryClient) FetchCategories(context.Context) ([]model.CategoryTree, error) {
	return c.trees, c.err
}

func liveIT() model.GraphDataset {
	ds := model.GraphDataset{}
	for i := 1; i <= 8; i++ {
		id := strconv.Itoa(100 + i)
		ds.Nodes = append(ds.Nodes, model.Node{
			ID:   id,
			Data: model.NodeData{Label: "cert " + id, Level: model.LevelEngineer, Category: "IT"},
		})
	}
	for i := 1; i <= 5; i++ {
		src, dst := strconv.Itoa(100+i), strconv.Itoa(101+i)
		ds.Edges = append(ds.Edges, model.Edge{ID: "e" + src + "-" + dst, Source: src, Target: dst})
	}
	return ds
}

func TestDemoDataset(t *testing.T) {
	ds := DemoDataset()
	if len(ds.Nodes) != 9 || len(ds.Edges) != 5 {
		t.Fatalf("demo has %d nodes / %d edges, want 9 / 5", len(ds.Nodes), len(ds.Edges))
	}
	for _, e := range ds.Edges {
		if _, ok := ds.NodeByID(e.Source); !ok {
			t.Errorf("edge %s: unknown source", e.ID)
		}
		if _, ok := ds.NodeByID(e.Target); !ok {
			t.Errorf("edge %s: unknown target", e.ID)
		}
	}
	n, _ := ds.NodeByID("6")
	if n.Data.Label != "정보처리기사" || n.Data.Level != model.LevelEngineer {
		t.Errorf("node 6 = %+v", n.Data)
	}
	if n.Style == nil || n.Style.Border != model.LevelEngineer.Palette().Border {
		t.Errorf("node 6 style = %+v", n.Style)
	}

	// Callers get independent copies.
	ds.Nodes[0].Data.Label = "changed"
	if DemoDataset().Nodes[0].Data.Label != "전기기능사" {
		t.Error("DemoDataset returned shared state")
	}
}

func TestFallbackUsesLiveData(t *testing.T) {
	client := &stubGraphClient{ds: liveIT()}
	src := WithDemoFallback(LiveGraphSource{Client: client})

	load := src.Resolve(context.Background(), "IT")
	if load.Fallback {
		t.Fatalf("unexpected fallback: %v", load.Cause)
	}
	if load.Origin != OriginLive {
		t.Errorf("origin = %q, want live", load.Origin)
	}
	if len(load.Dataset.Nodes) != 8 || len(load.Dataset.Edges) != 5 {
		t.Errorf("got %d nodes / %d edges", len(load.Dataset.Nodes), len(load.Dataset.Edges))
	}
	if len(client.calls) != 1 || client.calls[0] != "IT" {
		t.Errorf("calls = %v, want one call for IT", client.calls)
	}
}

func TestFallbackOnErrorAndEmpty(t *testing.T) {
	netErr := errors.New("connection refused")
	tests := []struct {
		name  string
		ds    model.GraphDataset
		err   error
		cause error
	}{
		{"network error", model.GraphDataset{}, netErr, netErr},
		{"empty dataset", model.GraphDataset{}, nil, ErrEmptyGraph},
		{"edges but no nodes", model.GraphDataset{Edges: []model.Edge{{ID: "x", Source: "1", Target: "2"}}}, nil, ErrEmptyGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubGraphClient{ds: tt.ds, err: tt.err}
			load := WithDemoFallback(LiveGraphSource{Client: client}).Resolve(context.Background(), "")
			if !load.Fallback || load.Origin != OriginDemo {
				t.Fatalf("fallback=%v origin=%q, want demo fallback", load.Fallback, load.Origin)
			}
			if !errors.Is(load.Cause, tt.cause) {
				t.Errorf("cause = %v, want %v", load.Cause, tt.cause)
			}
			if len(load.Dataset.Nodes) != 9 || len(load.Dataset.Edges) != 5 {
				t.Errorf("got %d nodes / %d edges", len(load.Dataset.Nodes), len(load.Dataset.Edges))
			}
			if len(client.calls) != 1 {
				t.Errorf("primary called %d times, want exactly once", len(client.calls))
			}
		})
	}
}

type failingSource struct{}

func (failingSource) LoadGraph(context.Context, string) (model.GraphDataset, error) {
	return model.GraphDataset{}, errors.New("boom")
}

func TestFallbackSourceFailureStillYieldsDemo(t *testing.T) {
	src := FallbackGraphSource{Primary: failingSource{}, Fallback: failingSource{}}
	load := src.Resolve(context.Background(), "")
	if load.Dataset.IsEmpty() {
		t.Fatal("dataset is empty")
	}
	if load.Origin != OriginDemo {
		t.Errorf("origin = %q, want demo", load.Origin)
	}
}

func TestGraphLoadNeverEmpty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "nodes")
		fail := rapid.Bool().Draw(t, "fail")
		ds := model.GraphDataset{}
		for i := 0; i < n; i++ {
			ds.Nodes = append(ds.Nodes, model.Node{ID: strconv.Itoa(i + 1)})
		}
		var err error
		if fail {
			err = errors.New("unreachable")
		}

		load := WithDemoFallback(LiveGraphSource{Client: &stubGraphClient{ds: ds, err: err}}).
			Resolve(context.Background(), "")
		if load.Dataset.IsEmpty() {
			t.Fatal("resolved dataset is empty")
		}
		if !fail && n > 0 {
			if load.Fallback || len(load.Dataset.Nodes) != n {
				t.Fatalf("live dataset of %d nodes replaced (fallback=%v, got %d)", n, load.Fallback, len(load.Dataset.Nodes))
			}
		} else if len(load.Dataset.Nodes) != 9 {
			t.Fatalf("expected demo dataset, got %d nodes", len(load.Dataset.Nodes))
		}
	})
}

func TestDetailFallbackScenario(t *testing.T) {
	graph := &stubGraphClient{ds: liveIT()}
	src := WithDemoFallback(LiveGraphSource{Client: graph})

	load := src.Resolve(context.Background(), "IT")
	if load.Fallback || len(load.Dataset.Nodes) != 8 {
		t.Fatalf("first load: fallback=%v nodes=%d", load.Fallback, len(load.Dataset.Nodes))
	}

	graph.err = errors.New("network down")
	load = src.Resolve(context.Background(), "IT")
	if !load.Fallback || len(load.Dataset.Nodes) != 9 || len(load.Dataset.Edges) != 5 {
		t.Fatalf("second load: fallback=%v nodes=%d edges=%d", load.Fallback, len(load.Dataset.Nodes), len(load.Dataset.Edges))
	}

	node, ok := load.Dataset.NodeByID("6")
	if !ok {
		t.Fatal("demo node 6 missing")
	}
	details := &stubDetailClient{err: errors.New("network down")}
	got := WithSynthesizedFallback(LiveDetailSource{Client: details}).Resolve(context.Background(), node)
	if !got.Fallback {
		t.Fatal("expected synthesized detail")
	}
	if len(details.ids) != 1 || details.ids[0] != 6 {
		t.Errorf("detail requests = %v, want [6]", details.ids)
	}
	d := got.Detail
	if d.ID != 6 || d.Name != "정보처리기사" || d.Level != model.LevelEngineer {
		t.Errorf("detail = %+v", d.CertificationSimple)
	}
	if d.Issuer != DefaultIssuer || d.PassRate != "45.2%" || d.CategoryMain != "IT" || d.LevelOrder != 3 {
		t.Errorf("placeholders = issuer %q pass %q category %q order %d", d.Issuer, d.PassRate, d.CategoryMain, d.LevelOrder)
	}
	if d.FeeWritten == nil || *d.FeeWritten != 19400 || d.FeePractical == nil || *d.FeePractical != 22600 {
		t.Errorf("fees = %v / %v", d.FeeWritten, d.FeePractical)
	}
	if !d.IsActive || len(d.Prerequisites) != 0 || len(d.RequiredFor) != 0 {
		t.Errorf("active=%v prereqs=%d next=%d", d.IsActive, len(d.Prerequisites), len(d.RequiredFor))
	}
}

func TestLiveDetailSkipsRequestForNonNumericID(t *testing.T) {
	details := &stubDetailClient{}
	node := model.Node{ID: "abc", Data: model.NodeData{Label: "외부자격", Level: "unknown"}}

	got := WithSynthesizedFallback(LiveDetailSource{Client: details}).Resolve(context.Background(), node)
	if len(details.ids) != 0 {
		t.Errorf("issued %d requests for non-numeric id", len(details.ids))
	}
	if !got.Fallback || !errors.Is(got.Cause, model.ErrInvalidNodeID) {
		t.Errorf("fallback=%v cause=%v", got.Fallback, got.Cause)
	}
	if got.Detail.LevelOrder != 3 || got.Detail.Name != "외부자격" {
		t.Errorf("detail = %+v", got.Detail.CertificationSimple)
	}
}

func TestLiveDetailSuccess(t *testing.T) {
	want := model.CertificationDetail{CertificationSimple: model.CertificationSimple{ID: 6, Name: "정보처리기사"}, Issuer: "큐넷"}
	got := WithSynthesizedFallback(LiveDetailSource{Client: &stubDetailClient{detail: want}}).
		Resolve(context.Background(), model.Node{ID: "6"})
	if got.Fallback || got.Detail.Issuer != "큐넷" {
		t.Errorf("got %+v fallback=%v", got.Detail, got.Fallback)
	}
}

func TestCategories(t *testing.T) {
	static := DefaultCategories()
	if static[0] != AllCategory || len(static) != 6 {
		t.Fatalf("static categories = %v", static)
	}

	live := LiveCategorySource{Client: stubCategoryClient{err: errors.New("down")}}
	if got := live.LoadCategories(context.Background()); len(got) != 6 {
		t.Errorf("failed live lookup returned %v", got)
	}

	live.Client = stubCategoryClient{trees: []model.CategoryTree{{Main: "IT"}, {Main: "농림"}, {Main: "IT"}, {Main: ""}}}
	got := live.LoadCategories(context.Background())
	want := []Category{AllCategory, {"IT", "IT"}, {"농림", "농림"}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFileGraphSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	body := `{"nodes":[
		{"id":"1","position":{"x":0,"y":0},"data":{"label":"A","level":"기사","category":"IT"}},
		{"id":"2","position":{"x":0,"y":100},"data":{"label":"B","level":"기사","category":"전기"}},
		{"id":"3","position":{"x":0,"y":200},"data":{"label":"C","level":"기술사","category":"IT"}}],
		"edges":[{"id":"e1-3","source":"1","target":"3"},{"id":"e1-2","source":"1","target":"2"}]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	src := FileGraphSource{Path: path}
	all, err := src.LoadGraph(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Nodes) != 3 || len(all.Edges) != 2 {
		t.Errorf("unfiltered: %d nodes / %d edges", len(all.Nodes), len(all.Edges))
	}

	it, err := src.LoadGraph(context.Background(), "IT")
	if err != nil {
		t.Fatal(err)
	}
	if len(it.Nodes) != 2 || len(it.Edges) != 1 || it.Edges[0].ID != "e1-3" {
		t.Errorf("IT: %+v", it)
	}

	if _, err := (FileGraphSource{Path: filepath.Join(t.TempDir(), "missing.json")}).LoadGraph(context.Background(), ""); err == nil {
		t.Error("expected error for missing file")
	}
}

func writeSnapshot(t *testing.T, ds model.GraphDataset, details map[string]model.CertificationDetail) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.sqlite3")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := CreateSchema(db); err != nil {
		t.Fatal(err)
	}
	if err := InsertDataset(ctx, db, ds); err != nil {
		t.Fatal(err)
	}
	for id, d := range details {
		if err := InsertDetail(ctx, db, id, d, false); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestSQLiteRoundTrip(t *testing.T) {
	ds := DemoDataset()
	ds.Nodes[5].Data.Category = "IT"
	ds.Nodes[8].Data.Category = "IT"
	detail := model.CertificationDetail{
		CertificationSimple: model.CertificationSimple{ID: 6, Name: "정보처리기사", Level: model.LevelEngineer},
		FeeWritten:          model.IntPtr(19400),
		RequiredFor:         []model.CertificationSimple{{ID: 9, Name: "정보처리기술사"}},
	}
	path := writeSnapshot(t, ds, map[string]model.CertificationDetail{"6": detail})

	src, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	ctx := context.Background()

	got, err := src.LoadGraph(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 9 || len(got.Edges) != 5 {
		t.Fatalf("got %d nodes / %d edges", len(got.Nodes), len(got.Edges))
	}
	if got.Nodes[0].ID != "1" || got.Nodes[0].Position != ds.Nodes[0].Position || *got.Nodes[0].Style != *ds.Nodes[0].Style {
		t.Errorf("first node = %+v", got.Nodes[0])
	}

	it, err := src.LoadGraph(ctx, "IT")
	if err != nil {
		t.Fatal(err)
	}
	if len(it.Nodes) != 2 || len(it.Edges) != 1 || it.Edges[0].ID != "e6-9" {
		t.Errorf("IT subset = %+v", it)
	}

	d, err := src.LoadDetail(ctx, model.Node{ID: "6"})
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "정보처리기사" || *d.FeeWritten != 19400 || len(d.RequiredFor) != 1 {
		t.Errorf("detail = %+v", d)
	}
	if _, err := src.LoadDetail(ctx, model.Node{ID: "1"}); !errors.Is(err, ErrNoDetail) {
		t.Errorf("missing detail err = %v, want ErrNoDetail", err)
	}
	if v, _ := src.Meta(ctx, "schema_version"); v != "1" {
		t.Errorf("schema_version = %q", v)
	}
}

func TestOpenSQLiteRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.sqlite3")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE t (x INTEGER)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := OpenSQLite(path); err == nil {
		t.Error("expected error opening a database without snapshot_meta")
	}
}

func TestDiffDatasets(t *testing.T) {
	prev := DemoDataset()
	next := DemoDataset()
	if d := DiffDatasets(prev, next); !d.Empty() || d.Summary() != "no changes" {
		t.Errorf("identical datasets diff = %+v", d)
	}

	next.Nodes = next.Nodes[:8]
	next.Nodes[0].Data.Label = "전기기능사(개정)"
	next.Nodes = append(next.Nodes, model.Node{ID: "10"})
	next.Edges = next.Edges[:4]
	next.Edges = append(next.Edges, model.Edge{ID: "e2-10", Source: "2", Target: "10"})

	d := DiffDatasets(prev, next)
	if len(d.AddedNodes) != 1 || d.AddedNodes[0] != "10" {
		t.Errorf("added = %v", d.AddedNodes)
	}
	if len(d.RemovedNodes) != 1 || d.RemovedNodes[0] != "9" {
		t.Errorf("removed = %v", d.RemovedNodes)
	}
	if len(d.ChangedNodes) != 1 || d.ChangedNodes[0] != "1" {
		t.Errorf("changed = %v", d.ChangedNodes)
	}
	if len(d.AddedEdges) != 1 || len(d.RemovedEdges) != 1 || d.RemovedEdges[0] != "6->9" {
		t.Errorf("edges +%v -%v", d.AddedEdges, d.RemovedEdges)
	}
	if want := "+nodes 1, -nodes 1, ~nodes 1, +edges 1, -edges 1"; d.Summary() != want {
		t.Errorf("summary = %q, want %q", d.Summary(), want)
	}
}
