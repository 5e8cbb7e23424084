package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/chat"
)

type mockSearcher struct {
	SearchFunc func(ctx context.Context, query string) (*catalog.SearchResult, error)
}

func (m *mockSearcher) Search(ctx context.Context, q string) (*catalog.SearchResult, error) {
	return m.SearchFunc(ctx, q)
}

type mockComparer struct {
	CompareFunc func(ctx context.Context, ids []string) (*catalog.CompareResult, error)
}

func (m *mockComparer) Compare(ctx context.Context, ids []string) (*catalog.CompareResult, error) {
	return m.CompareFunc(ctx, ids)
}

type mockTracker struct {
	clicks   []string
	compared [][]string
}

func (m *mockTracker) ProductClick(p catalog.Product, _ int) { m.clicks = append(m.clicks, p.ID) }
func (m *mockTracker) CompareView(ids []string)              { m.compared = append(m.compared, ids) }

var twoProducts = &catalog.SearchResult{
	ParsedQuery: catalog.ParsedQuery{Concern: "acne"},
	Products: []catalog.Product{
		{ID: "p1", Brand: "Acme", Name: "Gel", Price: catalog.Price{Sale: 349}},
		{ID: "p2", Brand: "Derma", Name: "Foam", Price: catalog.Price{MRP: 499}},
	},
}

func newTestModel(t *testing.T, opts ...Option) (Model, *chat.Controller) {
	t.Helper()
	searcher := &mockSearcher{SearchFunc: func(context.Context, string) (*catalog.SearchResult, error) {
		return twoProducts, nil
	}}
	obs, updates := Signal()
	ctrl := chat.New(searcher, chat.WithRevealInterval(0), chat.WithObserver(obs))
	t.Cleanup(func() {
		ctrl.Teardown()
		ctrl.Wait()
	})

	m := New(ctrl, updates, opts...)
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, ctrl
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func submitAndWait(t *testing.T, m Model, ctrl *chat.Controller, text string) Model {
	t.Helper()
	before := len(ctrl.Transcript())
	m.input.SetValue(text)
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Eventually(t, func() bool {
		return len(ctrl.Transcript()) == before+2 && !ctrl.Loading()
	}, time.Second, 5*time.Millisecond)
	m, _ = update(m, stateChangedMsg{})
	return m
}

func TestSubmitRendersAnswer(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = submitAndWait(t, m, ctrl, "acne gel")

	require.Empty(t, m.input.Value())
	require.Len(t, m.snap.Transcript, 2)
	require.Equal(t, "acne gel", m.snap.Transcript[0].Content)
	require.Len(t, m.snap.View.Products, 2)

	view := m.View()
	require.Contains(t, view, "Acme Gel")
	require.Contains(t, view, "₹349")
}

func TestBlankSubmitKeepsTranscript(t *testing.T) {
	m, ctrl := newTestModel(t)
	m.input.SetValue("   ")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Empty(t, ctrl.Transcript())
	require.Equal(t, "   ", m.input.Value())
}

func TestCompareMarkedProducts(t *testing.T) {
	tracker := &mockTracker{}
	comparer := &mockComparer{CompareFunc: func(_ context.Context, ids []string) (*catalog.CompareResult, error) {
		require.Equal(t, []string{"p1", "p2"}, ids)
		return &catalog.CompareResult{
			Products: twoProducts.Products,
			Comparison: catalog.Comparison{
				PriceRange:        catalog.Range{Lowest: 349, Highest: 499},
				CommonIngredients: []string{"Glycerin"},
			},
		}, nil
	}}
	m, ctrl := newTestModel(t, WithComparer(comparer), WithTracker(tracker))
	m = submitAndWait(t, m, ctrl, "acne")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	require.Equal(t, []string{"p1", "p2"}, m.markedIDs())

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.NotNil(t, cmd)
	require.True(t, m.snap.View.CompareMode)
	require.Equal(t, [][]string{{"p1", "p2"}}, tracker.compared)

	m, _ = update(m, cmd())
	require.NotNil(t, m.compare)
	require.Contains(t, m.View(), "Comparison")
	require.Contains(t, m.View(), "Shared: Glycerin")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.False(t, m.snap.View.CompareMode)
	require.Nil(t, m.compare)
}

func TestCompareNeedsTwoMarked(t *testing.T) {
	m, ctrl := newTestModel(t, WithComparer(&mockComparer{}))
	m = submitAndWait(t, m, ctrl, "acne")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.Nil(t, cmd)
	require.Contains(t, m.status, "at least two")
}

func TestProductDetail(t *testing.T) {
	tracker := &mockTracker{}
	m, ctrl := newTestModel(t, WithTracker(tracker))
	m = submitAndWait(t, m, ctrl, "acne")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlD})

	require.True(t, m.snap.View.ShowProductDetail)
	require.Equal(t, "p2", m.snap.View.SelectedProduct.ID)
	require.Equal(t, []string{"p2"}, tracker.clicks)
	require.Contains(t, m.View(), "₹499")
}

func TestResetClearsView(t *testing.T) {
	m, ctrl := newTestModel(t)
	m = submitAndWait(t, m, ctrl, "acne")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlT})

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Empty(t, m.snap.Transcript)
	require.Empty(t, m.snap.View.Products)
	require.Empty(t, m.markedIDs())
}

func TestSignalCoalesces(t *testing.T) {
	obs, updates := Signal()
	for range 3 {
		obs(chat.Event{Kind: chat.EventLoadingChanged})
	}
	require.Len(t, updates, 1)
}

func TestIngredientSpans(t *testing.T) {
	text := "Niacinamide and hyaluronic acid; also Hyaluronic Acid Serum"
	spans := ingredientSpans(text, []string{"hyaluronic acid", "Niacinamide", "acid", " "})

	var got []string
	for _, s := range spans {
		got = append(got, text[s.start:s.end])
	}
	require.Equal(t, []string{"Niacinamide", "hyaluronic acid", "Hyaluronic Acid"}, got)
	require.Empty(t, ingredientSpans("plain water", []string{"retinol"}))
}

func TestSignedOutReplacesPrompt(t *testing.T) {
	m, _ := newTestModel(t, WithPrompt("Complete your profile"))
	require.Contains(t, m.View(), "Complete your profile")

	m, _ = update(m, SignedOutMsg{})
	require.Contains(t, m.View(), "dermachat login")
}
