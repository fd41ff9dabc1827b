package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	criterionRepo "tidymatch/database/repository/criterion"
	managerRepo "tidymatch/database/repository/manager"
	matchingRepo "tidymatch/database/repository/matching"
	reservationRepo "tidymatch/database/repository/reservation"
	"tidymatch/models"
)

// In-memory repository doubles. They enforce the same conditional-write
// contracts as the Mongo implementations: write-once candidate answers,
// guarded finalize, guarded status transitions.

type fakeReservationRepo struct {
	mu   sync.Mutex
	byID map[string]*models.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{byID: map[string]*models.Reservation{}}
}

func (f *fakeReservationRepo) Create(_ context.Context, r *models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.byID[r.ID] = &cp
	return nil
}

func (f *fakeReservationRepo) GetByID(_ context.Context, id string) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, reservationRepo.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservationRepo) UpdateStatus(_ context.Context, id string, from, to models.ReservationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return reservationRepo.ErrNotFound
	}
	if r.Status != from {
		return reservationRepo.ErrNoTransition
	}
	r.Status = to
	r.UpdatedAt = time.Now()
	return nil
}

func (f *fakeReservationRepo) SetNeedsManual(_ context.Context, id string, needsManual bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return reservationRepo.ErrNotFound
	}
	r.NeedsManual = needsManual
	return nil
}

func (f *fakeReservationRepo) ListNeedingManual(_ context.Context) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.byID {
		if r.NeedsManual && r.Status == models.ReservationPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeManagerRepo struct {
	mu   sync.Mutex
	byID map[string]*models.Manager
}

func newFakeManagerRepo(managers ...models.Manager) *fakeManagerRepo {
	f := &fakeManagerRepo{byID: map[string]*models.Manager{}}
	for i := range managers {
		m := managers[i]
		f.byID[m.ID] = &m
	}
	return f
}

func (f *fakeManagerRepo) GetByID(_ context.Context, id string) (*models.Manager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, managerRepo.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeManagerRepo) ListEligible(_ context.Context, c managerRepo.EligibilityCriteria) ([]models.Manager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Manager
	for _, m := range f.byID {
		if m.Active && m.Serves(c.ServiceType) && m.AvailableAt(c.Date, c.Start, c.End) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeManagerRepo) Create(_ context.Context, m *models.Manager) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *m
	f.byID[m.ID] = &cp
	return nil
}

func (f *fakeManagerRepo) List(_ context.Context) ([]models.Manager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Manager
	for _, m := range f.byID {
		out = append(out, *m)
	}
	return out, nil
}

type fakeMatchingRepo struct {
	mu           sync.Mutex
	byID         map[string]*models.MatchingRequest
	reservations *fakeReservationRepo
}

func newFakeMatchingRepo(reservations *fakeReservationRepo) *fakeMatchingRepo {
	return &fakeMatchingRepo{byID: map[string]*models.MatchingRequest{}, reservations: reservations}
}

func cloneRequest(r *models.MatchingRequest) *models.MatchingRequest {
	cp := *r
	cp.Candidates = make([]models.CandidateEntry, len(r.Candidates))
	copy(cp.Candidates, r.Candidates)
	return &cp
}

func (f *fakeMatchingRepo) Create(_ context.Context, req *models.MatchingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[req.ID] = cloneRequest(req)
	return nil
}

func (f *fakeMatchingRepo) GetByID(_ context.Context, id string) (*models.MatchingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return nil, matchingRepo.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (f *fakeMatchingRepo) GetActiveByReservation(_ context.Context, reservationID string) (*models.MatchingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.byID {
		if req.ReservationID == reservationID && !req.Status.Terminal() {
			return cloneRequest(req), nil
		}
	}
	return nil, matchingRepo.ErrNotFound
}

func (f *fakeMatchingRepo) ListByReservation(_ context.Context, reservationID string) ([]models.MatchingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MatchingRequest
	for _, req := range f.byID {
		if req.ReservationID == reservationID {
			out = append(out, *cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attempt < out[j].Attempt })
	return out, nil
}

func (f *fakeMatchingRepo) CountByReservation(_ context.Context, reservationID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, req := range f.byID {
		if req.ReservationID == reservationID {
			n++
		}
	}
	return n, nil
}

func (f *fakeMatchingRepo) CountRetired(_ context.Context, reservationID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, req := range f.byID {
		if req.ReservationID == reservationID && req.Retired {
			n++
		}
	}
	return n, nil
}

func (f *fakeMatchingRepo) SetCandidateResponse(_ context.Context, requestID, managerID string, accepted bool, refuseReason string, at time.Time) (*models.MatchingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[requestID]
	if !ok {
		return nil, matchingRepo.ErrNotFound
	}
	entry := req.Candidate(managerID)
	if entry == nil || !entry.IsRequested {
		return nil, matchingRepo.ErrNotFound
	}
	if entry.IsAccepted != nil {
		return nil, matchingRepo.ErrConflict
	}
	v := accepted
	entry.IsAccepted = &v
	entry.RefuseReason = refuseReason
	t := at
	entry.RespondedAt = &t
	req.UpdatedAt = at
	return cloneRequest(req), nil
}

func (f *fakeMatchingRepo) FinalizeCandidate(_ context.Context, requestID, managerID, reservationID string, at time.Time) (*models.MatchingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[requestID]
	if !ok {
		return nil, matchingRepo.ErrNotFound
	}
	if req.Status.Terminal() {
		return nil, matchingRepo.ErrConflict
	}
	entry := req.Candidate(managerID)
	if entry == nil {
		return nil, matchingRepo.ErrNotFound
	}
	if !entry.AwaitingDecision() {
		return nil, matchingRepo.ErrConflict
	}

	f.reservations.mu.Lock()
	res, ok := f.reservations.byID[reservationID]
	if !ok || res.Status != models.ReservationPending {
		f.reservations.mu.Unlock()
		return nil, matchingRepo.ErrConflict
	}
	res.Status = models.ReservationConfirmed
	res.UpdatedAt = at
	f.reservations.mu.Unlock()

	yes := true
	entry.IsFinal = &yes
	t := at
	entry.DecidedAt = &t
	for i := range req.Candidates {
		sib := &req.Candidates[i]
		if sib.ManagerID == managerID || sib.IsFinal != nil {
			continue
		}
		no := false
		sib.IsFinal = &no
		sib.FinalReason = models.ReasonSuperseded
		sib.DecidedAt = &t
	}
	req.Status = models.RequestMatched
	req.StatusReason = ""
	req.UpdatedAt = at
	return cloneRequest(req), nil
}

func (f *fakeMatchingRepo) RejectCandidate(_ context.Context, requestID, managerID, reason string, at time.Time) (*models.MatchingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[requestID]
	if !ok {
		return nil, matchingRepo.ErrNotFound
	}
	entry := req.Candidate(managerID)
	if entry == nil {
		return nil, matchingRepo.ErrNotFound
	}
	if !entry.AwaitingDecision() {
		return nil, matchingRepo.ErrConflict
	}
	no := false
	entry.IsFinal = &no
	entry.FinalReason = reason
	t := at
	entry.DecidedAt = &t
	req.UpdatedAt = at
	return cloneRequest(req), nil
}

func (f *fakeMatchingRepo) MarkFailedIfExhausted(_ context.Context, requestID, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[requestID]
	if !ok {
		return false, matchingRepo.ErrNotFound
	}
	if req.Status != models.RequestPending {
		return false, nil
	}
	for _, c := range req.Candidates {
		if c.Outstanding() || c.AwaitingDecision() {
			return false, nil
		}
	}
	req.Status = models.RequestFailed
	req.StatusReason = reason
	req.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeMatchingRepo) Retire(_ context.Context, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[requestID]
	if !ok {
		return matchingRepo.ErrNotFound
	}
	if !req.Status.Terminal() {
		return matchingRepo.ErrConflict
	}
	req.Retired = true
	return nil
}

type fakeCriterionRepo struct {
	mu   sync.Mutex
	byID map[string]*models.Criterion
}

func newFakeCriterionRepo(criteria []models.Criterion) *fakeCriterionRepo {
	f := &fakeCriterionRepo{byID: map[string]*models.Criterion{}}
	for i := range criteria {
		c := criteria[i]
		f.byID[c.ID] = &c
	}
	return f
}

func (f *fakeCriterionRepo) sorted() []models.Criterion {
	var out []models.Criterion
	for _, c := range f.byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeCriterionRepo) ListActive(_ context.Context) ([]models.Criterion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Criterion
	for _, c := range f.sorted() {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCriterionRepo) List(_ context.Context) ([]models.Criterion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(), nil
}

func (f *fakeCriterionRepo) SetWeight(_ context.Context, id string, weight int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return criterionRepo.ErrNotFound
	}
	c.Weight = weight
	return nil
}

func (f *fakeCriterionRepo) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return criterionRepo.ErrNotFound
	}
	c.Active = active
	return nil
}

func (f *fakeCriterionRepo) Seed(_ context.Context, defaults []models.Criterion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.byID) > 0 {
		return nil
	}
	for i := range defaults {
		c := defaults[i]
		f.byID[c.ID] = &c
	}
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []models.MatchingEvent
}

func (f *fakeNotifier) Publish(_ context.Context, evt models.MatchingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeNotifier) byType(t models.EventType) []models.MatchingEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MatchingEvent
	for _, e := range f.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []RetryPayload
}

func (f *fakeScheduler) ScheduleRetry(_ context.Context, reservationID string, attempt int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, RetryPayload{ReservationID: reservationID, Attempt: attempt})
	return nil
}

// testEnv bundles a fully wired engine over the in-memory doubles.
type testEnv struct {
	svc          *DefaultMatchingService
	reservations *fakeReservationRepo
	managers     *fakeManagerRepo
	requests     *fakeMatchingRepo
	criteria     *fakeCriterionRepo
	notifier     *fakeNotifier
	scheduler    *fakeScheduler
}

func newTestEnv(managers ...models.Manager) *testEnv {
	reservations := newFakeReservationRepo()
	requests := newFakeMatchingRepo(reservations)
	criteria := newFakeCriterionRepo(DefaultCriteria())
	notifier := &fakeNotifier{}
	scheduler := &fakeScheduler{}
	mgrRepo := newFakeManagerRepo(managers...)

	svc := &DefaultMatchingService{
		ReservationRepo: reservations,
		ManagerRepo:     mgrRepo,
		MatchingRepo:    requests,
		Registry:        &DefaultCriterionRegistry{Repo: criteria},
		Notifier:        notifier,
		Retry: &DefaultRetryController{
			MatchingRepo:    requests,
			ReservationRepo: reservations,
			Scheduler:       scheduler,
			MaxAutoAttempts: 3,
		},
		Cfg: Config{Fanout: 3, SearchRadiusKm: 5.0},
	}
	return &testEnv{
		svc:          svc,
		reservations: reservations,
		managers:     mgrRepo,
		requests:     requests,
		criteria:     criteria,
		notifier:     notifier,
		scheduler:    scheduler,
	}
}

func (e *testEnv) addReservation(id, serviceType string) *models.Reservation {
	res := &models.Reservation{
		ID:          id,
		CustomerID:  "customer-1",
		ServiceType: serviceType,
		Date:        "2026-09-07",
		Start:       9 * 60,
		End:         12 * 60,
		LocationGeo: models.NewGeoPoint(36.8219, -1.2921),
		Status:      models.ReservationPending,
	}
	_ = e.reservations.Create(context.Background(), res)
	return res
}

func testManager(id string, serviceTypes ...string) models.Manager {
	return models.Manager{
		ID:              id,
		Name:            "Manager " + id,
		ServiceTypes:    serviceTypes,
		LocationGeo:     models.NewGeoPoint(36.8219, -1.2921),
		Rating:          4.0,
		ExperienceYears: 5,
		HourlyRate:      50,
		Active:          true,
	}
}
