package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agriweather/backend/services/insights-service/internal/models"
)

type fakeUnits struct {
	units []models.Unit
	err   error
}

func (f *fakeUnits) List(ctx context.Context) ([]models.Unit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Unit(nil), f.units...), nil
}

func (f *fakeUnits) GetByExternalCode(ctx context.Context, code int) (models.Unit, bool, error) {
	if f.err != nil {
		return models.Unit{}, false, f.err
	}
	for _, u := range f.units {
		if u.ExternalCode == code {
			return u, true, nil
		}
	}
	return models.Unit{}, false, nil
}

// fakeObservations returns every stored row from LatestPerUnit, leaving the
// reduction to the service.
type fakeObservations struct {
	rows []models.Observation
	err  error
}

func (f *fakeObservations) LatestPerUnit(ctx context.Context) ([]models.Observation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeObservations) History(ctx context.Context, unitID uuid.UUID, filter models.HistoryFilter) ([]models.Observation, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Observation
	for _, o := range f.rows {
		if o.UnitID == unitID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeSurveys struct {
	rows []models.SurveySnapshot
	err  error
}

func (f *fakeSurveys) LatestPerCode(ctx context.Context) ([]models.SurveySnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeSurveys) ForCode(ctx context.Context, code int) ([]models.SurveySnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.SurveySnapshot
	for _, s := range f.rows {
		if s.ExternalCode == code {
			out = append(out, s)
		}
	}
	return out, nil
}

type fixture struct {
	units        *fakeUnits
	observations *fakeObservations
	surveys      *fakeSurveys
	svc          *InsightsService

	unitA, unitB, unitC models.Unit
	t1, t2              time.Time
}

func newFixture() *fixture {
	f := &fixture{
		unitA: models.Unit{ID: uuid.New(), ExternalCode: 1, Latitude: 45.0, Longitude: 2.0},
		unitB: models.Unit{ID: uuid.New(), ExternalCode: 2, Latitude: 46.0, Longitude: 3.0},
		unitC: models.Unit{ID: uuid.New(), ExternalCode: 3, Latitude: 47.0, Longitude: 4.0},
		t1:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	f.t2 = f.t1.Add(time.Hour)

	f.units = &fakeUnits{units: []models.Unit{f.unitA, f.unitB, f.unitC}}
	f.observations = &fakeObservations{rows: []models.Observation{
		{ID: uuid.New(), Seq: 2, UnitID: f.unitA.ID, ObservedAt: f.t2, Temperature: 22, ConditionLabel: "Clouds"},
		{ID: uuid.New(), Seq: 1, UnitID: f.unitA.ID, ObservedAt: f.t1, Temperature: 20, ConditionLabel: "Clear"},
		{ID: uuid.New(), Seq: 3, UnitID: f.unitB.ID, ObservedAt: f.t1, Temperature: 15},
	}}
	f.surveys = &fakeSurveys{rows: []models.SurveySnapshot{
		{ID: uuid.New(), Seq: 1, ExternalCode: 2, Year: 2021, Payload: models.SurveyPayload{"PBV3COLZ": models.Number(1000)}},
		{ID: uuid.New(), Seq: 2, ExternalCode: 2, Year: 2023, Payload: models.SurveyPayload{"PBV3COLZ": models.Number(1500)}},
		{ID: uuid.New(), Seq: 3, ExternalCode: 3, Year: 2022, Payload: models.SurveyPayload{"PBV3COLZ": models.Text("n/a")}},
	}}
	f.svc = NewInsightsService(f.units, f.observations, f.surveys, time.Second, zap.NewNop())
	return f
}

func TestLatestObservationPerUnit(t *testing.T) {
	f := newFixture()

	latest, err := f.svc.LatestObservationPerUnit(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got := latest[f.unitA.ID].Temperature; got != 22 {
		t.Fatalf("expected latest temperature 22 for A, got %v", got)
	}
	if _, ok := latest[f.unitC.ID]; ok {
		t.Fatal("unit without observations must be absent")
	}
	for unitID, w := range latest {
		for _, o := range f.observations.rows {
			if o.UnitID == unitID && o.ObservedAt.After(w.ObservedAt) {
				t.Fatalf("unit %s: found newer observation than latest", unitID)
			}
		}
	}
}

func TestLatestObservationTieBreaksOnSeq(t *testing.T) {
	f := newFixture()
	f.observations.rows = append(f.observations.rows,
		models.Observation{ID: uuid.New(), Seq: 10, UnitID: f.unitA.ID, ObservedAt: f.t2, Temperature: 30},
		models.Observation{ID: uuid.New(), Seq: 5, UnitID: f.unitA.ID, ObservedAt: f.t2, Temperature: 25},
	)

	latest, err := f.svc.LatestObservationPerUnit(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got := latest[f.unitA.ID].Temperature; got != 30 {
		t.Fatalf("expected highest seq to win, got %v", got)
	}
}

func TestMergedCurrentState(t *testing.T) {
	f := newFixture()

	states, err := f.svc.MergedCurrentState(context.Background())
	if err != nil {
		t.Fatalf("merged: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("expected one row per unit, got %d", len(states))
	}
	byID := make(map[uuid.UUID]models.CurrentState)
	for _, s := range states {
		byID[s.ID] = s
	}
	if w := byID[f.unitA.ID].Weather; w == nil || w.Temperature != 22 {
		t.Fatalf("unexpected weather for A: %+v", w)
	}
	if byID[f.unitC.ID].Weather != nil {
		t.Fatal("unit without observations must have nil weather")
	}
}

func TestObservationHistoryOrderedAndIdempotent(t *testing.T) {
	f := newFixture()

	first, err := f.svc.ObservationHistory(context.Background(), f.unitA.ID, models.HistoryFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(first))
	}
	for i := 1; i < len(first); i++ {
		if first[i].ObservedAt.Before(first[i-1].ObservedAt) {
			t.Fatal("history must be non-decreasing in observed_at")
		}
	}

	second, err := f.svc.ObservationHistory(context.Background(), f.unitA.ID, models.HistoryFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatal("history must be stable across calls")
		}
	}
}

func TestObservationHistoryEmptyAndFiltered(t *testing.T) {
	f := newFixture()

	empty, err := f.svc.ObservationHistory(context.Background(), f.unitC.ID, models.HistoryFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty slice, got %#v", empty)
	}

	bounded, err := f.svc.ObservationHistory(context.Background(), f.unitA.ID, models.HistoryFilter{From: f.t2})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(bounded) != 1 || bounded[0].Temperature != 22 {
		t.Fatalf("unexpected bounded history %+v", bounded)
	}

	limited, err := f.svc.ObservationHistory(context.Background(), f.unitA.ID, models.HistoryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(limited) != 1 || limited[0].Temperature != 20 {
		t.Fatalf("limit must keep earliest rows, got %+v", limited)
	}

	if _, err := f.svc.ObservationHistory(context.Background(), f.unitA.ID, models.HistoryFilter{From: f.t2, To: f.t1}); !errors.Is(err, models.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestUnitsWithLatestSurvey(t *testing.T) {
	f := newFixture()

	views, err := f.svc.UnitsWithLatestSurvey(context.Background())
	if err != nil {
		t.Fatalf("surveys: %v", err)
	}

	units, err := f.svc.ListUnits(context.Background())
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	if len(views) != len(units) {
		t.Fatalf("expected %d rows, got %d", len(units), len(views))
	}

	byCode := make(map[int]models.UnitWithSurvey)
	for _, v := range views {
		byCode[v.ExternalCode] = v
	}
	if byCode[1].HasSurvey() {
		t.Fatal("unit A has no survey")
	}
	if got := ExtractSurveyMetric(byCode[2], "PBV3COLZ"); got != 1500 {
		t.Fatalf("expected 1500 for B, got %v", got)
	}
	if *byCode[2].SurveyYear != 2023 {
		t.Fatalf("expected 2023 for B, got %d", *byCode[2].SurveyYear)
	}
	if got := ExtractSurveyMetric(byCode[3], "PBV3COLZ"); got != 0 {
		t.Fatalf("expected 0 for non-numeric value, got %v", got)
	}
	for _, v := range views {
		if got := ExtractSurveyMetric(v, "UNKNOWN_KEY"); got != 0 {
			t.Fatalf("expected 0 for unknown key, got %v", got)
		}
	}
}

func TestUnitsWithLatestSurveyJoinsOnExternalCode(t *testing.T) {
	f := newFixture()
	// Survey ids never match unit ids; only the external code links them.
	for i := range f.surveys.rows {
		f.surveys.rows[i].ID = f.unitA.ID
	}

	views, err := f.svc.UnitsWithLatestSurvey(context.Background())
	if err != nil {
		t.Fatalf("surveys: %v", err)
	}
	for _, v := range views {
		if v.ID == f.unitA.ID && v.HasSurvey() {
			t.Fatal("survey joined on id instead of external code")
		}
	}
}

func TestUnitsWithLatestSurveySameYearPrefersSeq(t *testing.T) {
	f := newFixture()
	f.surveys.rows = append(f.surveys.rows,
		models.SurveySnapshot{ID: uuid.New(), Seq: 9, ExternalCode: 2, Year: 2023, Payload: models.SurveyPayload{"PBV3COLZ": models.Number(1700)}},
	)

	views, err := f.svc.UnitsWithLatestSurvey(context.Background())
	if err != nil {
		t.Fatalf("surveys: %v", err)
	}
	for _, v := range views {
		if v.ExternalCode == 2 && ExtractSurveyMetric(v, "PBV3COLZ") != 1700 {
			t.Fatalf("expected later ingestion to win, got %v", ExtractSurveyMetric(v, "PBV3COLZ"))
		}
	}
}

func TestUnitSurvey(t *testing.T) {
	f := newFixture()

	view, ok, err := f.svc.UnitSurvey(context.Background(), 2)
	if err != nil || !ok {
		t.Fatalf("unit survey: ok=%v err=%v", ok, err)
	}
	metrics := CerealProducts(view)
	if len(metrics) != 3 || metrics[0].Key != MetricRapeseed || metrics[0].Value != 1500 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
	if metrics[1].Value != 0 || metrics[2].Value != 0 {
		t.Fatalf("missing keys must be 0, got %+v", metrics)
	}

	_, ok, err = f.svc.UnitSurvey(context.Background(), 99)
	if err != nil || ok {
		t.Fatalf("expected not found, got ok=%v err=%v", ok, err)
	}
}

func TestStoreFailuresFailWholeView(t *testing.T) {
	boom := errors.New("connection reset")

	cases := []struct {
		name  string
		setup func(f *fixture)
		call  func(f *fixture) error
	}{
		{
			name:  "units",
			setup: func(f *fixture) { f.units.err = boom },
			call: func(f *fixture) error {
				_, err := f.svc.ListUnits(context.Background())
				return err
			},
		},
		{
			name:  "merged weather",
			setup: func(f *fixture) { f.observations.err = boom },
			call: func(f *fixture) error {
				_, err := f.svc.MergedCurrentState(context.Background())
				return err
			},
		},
		{
			name:  "surveys",
			setup: func(f *fixture) { f.surveys.err = boom },
			call: func(f *fixture) error {
				_, err := f.svc.UnitsWithLatestSurvey(context.Background())
				return err
			},
		},
		{
			name:  "history",
			setup: func(f *fixture) { f.observations.err = boom },
			call: func(f *fixture) error {
				_, err := f.svc.ObservationHistory(context.Background(), f.unitA.ID, models.HistoryFilter{})
				return err
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			tc.setup(f)
			err := tc.call(f)
			if !errors.Is(err, ErrStoreUnavailable) {
				t.Fatalf("expected ErrStoreUnavailable, got %v", err)
			}
			if !errors.Is(err, boom) {
				t.Fatalf("expected cause to be preserved, got %v", err)
			}
		})
	}
}

func TestSurveyMetricsUnknownLabel(t *testing.T) {
	metrics := SurveyMetrics(models.UnitWithSurvey{}, []string{"OTEX"})
	if len(metrics) != 1 || metrics[0].Label != "OTEX" || metrics[0].Value != 0 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
}
