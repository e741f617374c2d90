// Package memory - хранилище в памяти процесса для разработки и тестов.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type state struct {
	quoteSeq            int64
	quotes              map[string]models.Quote
	versions            map[string]models.QuoteVersion
	deliverables        map[string]models.Deliverable
	milestones          map[string]models.Milestone
	projects            map[string]models.Project
	projectDeliverables map[string]models.ProjectDeliverable
	projectMilestones   map[string]models.ProjectMilestone
	timeEntries         map[string]models.TimeEntry
	accessCodes         map[string]models.QuoteAccessCode // по quote_id
	actions             []models.QuoteAction
}

func newState() *state {
	return &state{
		quotes:              map[string]models.Quote{},
		versions:            map[string]models.QuoteVersion{},
		deliverables:        map[string]models.Deliverable{},
		milestones:          map[string]models.Milestone{},
		projects:            map[string]models.Project{},
		projectDeliverables: map[string]models.ProjectDeliverable{},
		projectMilestones:   map[string]models.ProjectMilestone{},
		timeEntries:         map[string]models.TimeEntry{},
		accessCodes:         map[string]models.QuoteAccessCode{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		quoteSeq:            s.quoteSeq,
		quotes:              cloneMap(s.quotes),
		versions:            cloneMap(s.versions),
		deliverables:        cloneMap(s.deliverables),
		milestones:          cloneMap(s.milestones),
		projects:            cloneMap(s.projects),
		projectDeliverables: cloneMap(s.projectDeliverables),
		projectMilestones:   cloneMap(s.projectMilestones),
		timeEntries:         cloneMap(s.timeEntries),
		accessCodes:         cloneMap(s.accessCodes),
		actions:             append([]models.QuoteAction(nil), s.actions...),
	}
}

// Store - реализация repository.Store в памяти.
// Транзакция работает с копией состояния и подменяет его при успехе.
type Store struct {
	mu *sync.Mutex
	st *state
	tx bool
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState()}
}

func (s *Store) lock() func() {
	if s.tx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func notFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, repository.ErrNotFound)
}

func newID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// InTx выполняет fn над копией состояния; при ошибке копия отбрасывается.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := &Store{mu: s.mu, st: s.st.clone(), tx: true}
	if err := fn(work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work.st
	return nil
}

func (s *Store) NextQuoteSequence(ctx context.Context) (int64, error) {
	defer s.lock()()
	s.st.quoteSeq++
	return s.st.quoteSeq, nil
}

func (s *Store) CreateQuote(ctx context.Context, q *models.Quote) error {
	defer s.lock()()
	for _, existing := range s.st.quotes {
		if existing.QuoteNumber == q.QuoteNumber {
			return fmt.Errorf("failed to insert quote: duplicate quote number %s", q.QuoteNumber)
		}
	}
	q.ID = newID(q.ID)
	s.st.quotes[q.ID] = *q
	return nil
}

func (s *Store) GetQuote(ctx context.Context, quoteId string) (*models.Quote, error) {
	defer s.lock()()
	q, ok := s.st.quotes[quoteId]
	if !ok {
		return nil, notFound("quote")
	}
	return &q, nil
}

func (s *Store) GetQuoteByNumber(ctx context.Context, quoteNumber string) (*models.Quote, error) {
	defer s.lock()()
	for _, q := range s.st.quotes {
		if q.QuoteNumber == quoteNumber {
			return &q, nil
		}
	}
	return nil, notFound("quote")
}

func (s *Store) ListQuotes(ctx context.Context, statuses []string, limit, offset int) ([]models.Quote, error) {
	defer s.lock()()
	allowed := map[models.QuoteStatus]bool{}
	for _, st := range statuses {
		allowed[models.QuoteStatus(st)] = true
	}

	quotes := []models.Quote{}
	for _, q := range s.st.quotes {
		if len(allowed) > 0 && !allowed[q.Status] {
			continue
		}
		quotes = append(quotes, q)
	}
	sort.Slice(quotes, func(i, j int) bool {
		if quotes[i].CreatedAt.Equal(quotes[j].CreatedAt) {
			return quotes[i].QuoteNumber > quotes[j].QuoteNumber
		}
		return quotes[i].CreatedAt.After(quotes[j].CreatedAt)
	})
	return page(quotes, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (s *Store) UpdateQuoteStatus(ctx context.Context, quoteId string, status models.QuoteStatus) error {
	defer s.lock()()
	q, ok := s.st.quotes[quoteId]
	if !ok {
		return notFound("quote")
	}
	q.Status = status
	q.UpdatedAt = time.Now()
	s.st.quotes[quoteId] = q
	return nil
}

func (s *Store) CreateVersion(ctx context.Context, v *models.QuoteVersion) error {
	defer s.lock()()
	for _, existing := range s.st.versions {
		if existing.QuoteID == v.QuoteID && existing.VersionNumber == v.VersionNumber {
			return fmt.Errorf("failed to insert quote version: duplicate version %d", v.VersionNumber)
		}
	}
	v.ID = newID(v.ID)
	s.st.versions[v.ID] = *v
	return nil
}

func (s *Store) GetVersion(ctx context.Context, versionId string) (*models.QuoteVersion, error) {
	defer s.lock()()
	v, ok := s.st.versions[versionId]
	if !ok {
		return nil, notFound("quote version")
	}
	return &v, nil
}

func (s *Store) ListVersions(ctx context.Context, quoteId string) ([]models.QuoteVersion, error) {
	defer s.lock()()
	versions := []models.QuoteVersion{}
	for _, v := range s.st.versions {
		if v.QuoteID == quoteId {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].VersionNumber < versions[j].VersionNumber })
	return versions, nil
}

func (s *Store) MaxVersionNumber(ctx context.Context, quoteId string) (int, error) {
	defer s.lock()()
	maxVersion := 0
	for _, v := range s.st.versions {
		if v.QuoteID == quoteId && v.VersionNumber > maxVersion {
			maxVersion = v.VersionNumber
		}
	}
	return maxVersion, nil
}

func (s *Store) UpdateVersion(ctx context.Context, v *models.QuoteVersion) error {
	defer s.lock()()
	existing, ok := s.st.versions[v.ID]
	if !ok {
		return notFound("quote version")
	}
	existing.Pricing = v.Pricing
	existing.Notes = v.Notes
	existing.SubtotalExGST = v.SubtotalExGST
	existing.GSTAmount = v.GSTAmount
	existing.TotalIncGST = v.TotalIncGST
	s.st.versions[v.ID] = existing
	return nil
}

func (s *Store) CreateDeliverable(ctx context.Context, d *models.Deliverable) error {
	defer s.lock()()
	if _, ok := s.st.versions[d.QuoteVersionID]; !ok {
		return notFound("quote version")
	}
	d.ID = newID(d.ID)
	stored := *d
	stored.Milestones = nil
	s.st.deliverables[d.ID] = stored
	return nil
}

func (s *Store) UpdateDeliverable(ctx context.Context, d *models.Deliverable) error {
	defer s.lock()()
	existing, ok := s.st.deliverables[d.ID]
	if !ok {
		return notFound("deliverable")
	}
	stored := *d
	stored.QuoteVersionID = existing.QuoteVersionID
	stored.Milestones = nil
	s.st.deliverables[d.ID] = stored
	return nil
}

func (s *Store) GetDeliverable(ctx context.Context, deliverableId string) (*models.Deliverable, error) {
	defer s.lock()()
	d, ok := s.st.deliverables[deliverableId]
	if !ok {
		return nil, notFound("deliverable")
	}
	return &d, nil
}

func (s *Store) ListDeliverables(ctx context.Context, versionId string) ([]models.Deliverable, error) {
	defer s.lock()()
	deliverables := []models.Deliverable{}
	for _, d := range s.st.deliverables {
		if d.QuoteVersionID == versionId {
			deliverables = append(deliverables, d)
		}
	}
	sort.Slice(deliverables, func(i, j int) bool {
		if deliverables[i].Order == deliverables[j].Order {
			return deliverables[i].ID < deliverables[j].ID
		}
		return deliverables[i].Order < deliverables[j].Order
	})
	return deliverables, nil
}

func (s *Store) DeleteDeliverable(ctx context.Context, deliverableId string) error {
	defer s.lock()()
	if _, ok := s.st.deliverables[deliverableId]; !ok {
		return notFound("deliverable")
	}
	delete(s.st.deliverables, deliverableId)
	for id, m := range s.st.milestones {
		if m.DeliverableID == deliverableId {
			delete(s.st.milestones, id)
		}
	}
	return nil
}

func (s *Store) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	defer s.lock()()
	if _, ok := s.st.deliverables[m.DeliverableID]; !ok {
		return notFound("deliverable")
	}
	m.ID = newID(m.ID)
	s.st.milestones[m.ID] = *m
	return nil
}

func (s *Store) UpdateMilestone(ctx context.Context, m *models.Milestone) error {
	defer s.lock()()
	existing, ok := s.st.milestones[m.ID]
	if !ok {
		return notFound("milestone")
	}
	stored := *m
	stored.DeliverableID = existing.DeliverableID
	s.st.milestones[m.ID] = stored
	return nil
}

func (s *Store) GetMilestone(ctx context.Context, milestoneId string) (*models.Milestone, error) {
	defer s.lock()()
	m, ok := s.st.milestones[milestoneId]
	if !ok {
		return nil, notFound("milestone")
	}
	return &m, nil
}

func (s *Store) ListMilestones(ctx context.Context, deliverableId string) ([]models.Milestone, error) {
	defer s.lock()()
	milestones := []models.Milestone{}
	for _, m := range s.st.milestones {
		if m.DeliverableID == deliverableId {
			milestones = append(milestones, m)
		}
	}
	sort.Slice(milestones, func(i, j int) bool {
		if milestones[i].Order == milestones[j].Order {
			return milestones[i].ID < milestones[j].ID
		}
		return milestones[i].Order < milestones[j].Order
	})
	return milestones, nil
}

func (s *Store) DeleteMilestone(ctx context.Context, milestoneId string) error {
	defer s.lock()()
	if _, ok := s.st.milestones[milestoneId]; !ok {
		return notFound("milestone")
	}
	delete(s.st.milestones, milestoneId)
	return nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	defer s.lock()()
	for _, existing := range s.st.projects {
		if existing.QuoteID == p.QuoteID {
			return fmt.Errorf("failed to insert project: quote %s already has a project", p.QuoteID)
		}
	}
	p.ID = newID(p.ID)
	for i := range p.Deliverables {
		d := &p.Deliverables[i]
		d.ID = newID(d.ID)
		d.ProjectID = p.ID
		for j := range d.Milestones {
			m := &d.Milestones[j]
			m.ID = newID(m.ID)
			m.ProjectDeliverableID = d.ID
			s.st.projectMilestones[m.ID] = *m
		}
		stored := *d
		stored.Milestones = nil
		s.st.projectDeliverables[d.ID] = stored
	}
	stored := *p
	stored.Deliverables = nil
	s.st.projects[p.ID] = stored
	return nil
}

func (s *Store) projectTree(p models.Project) *models.Project {
	p.Deliverables = []models.ProjectDeliverable{}
	for _, d := range s.st.projectDeliverables {
		if d.ProjectID != p.ID {
			continue
		}
		d.Milestones = []models.ProjectMilestone{}
		for _, m := range s.st.projectMilestones {
			if m.ProjectDeliverableID == d.ID {
				d.Milestones = append(d.Milestones, m)
			}
		}
		sort.Slice(d.Milestones, func(i, j int) bool { return d.Milestones[i].Order < d.Milestones[j].Order })
		p.Deliverables = append(p.Deliverables, d)
	}
	sort.Slice(p.Deliverables, func(i, j int) bool { return p.Deliverables[i].Order < p.Deliverables[j].Order })
	return &p
}

func (s *Store) GetProject(ctx context.Context, projectId string) (*models.Project, error) {
	defer s.lock()()
	p, ok := s.st.projects[projectId]
	if !ok {
		return nil, notFound("project")
	}
	return s.projectTree(p), nil
}

func (s *Store) GetProjectByQuote(ctx context.Context, quoteId string) (*models.Project, error) {
	defer s.lock()()
	for _, p := range s.st.projects {
		if p.QuoteID == quoteId {
			return s.projectTree(p), nil
		}
	}
	return nil, notFound("project")
}

func (s *Store) GetProjectMilestone(ctx context.Context, milestoneId string) (*models.ProjectMilestone, error) {
	defer s.lock()()
	m, ok := s.st.projectMilestones[milestoneId]
	if !ok {
		return nil, notFound("project milestone")
	}
	return &m, nil
}

func (s *Store) GetProjectDeliverable(ctx context.Context, deliverableId string) (*models.ProjectDeliverable, error) {
	defer s.lock()()
	d, ok := s.st.projectDeliverables[deliverableId]
	if !ok {
		return nil, notFound("project deliverable")
	}
	return &d, nil
}

func (s *Store) CreateTimeEntry(ctx context.Context, e *models.TimeEntry) error {
	defer s.lock()()
	if _, ok := s.st.projectMilestones[e.ProjectMilestoneID]; !ok {
		return notFound("project milestone")
	}
	e.ID = newID(e.ID)
	s.st.timeEntries[e.ID] = *e
	return nil
}

func (s *Store) GetTimeEntry(ctx context.Context, entryId string) (*models.TimeEntry, error) {
	defer s.lock()()
	e, ok := s.st.timeEntries[entryId]
	if !ok {
		return nil, notFound("time entry")
	}
	return &e, nil
}

func (s *Store) UpdateTimeEntry(ctx context.Context, e *models.TimeEntry) error {
	defer s.lock()()
	existing, ok := s.st.timeEntries[e.ID]
	if !ok {
		return notFound("time entry")
	}
	existing.EntryDate = e.EntryDate
	existing.Hours = e.Hours
	existing.Note = e.Note
	s.st.timeEntries[e.ID] = existing
	return nil
}

func (s *Store) DeleteTimeEntry(ctx context.Context, entryId string) error {
	defer s.lock()()
	if _, ok := s.st.timeEntries[entryId]; !ok {
		return notFound("time entry")
	}
	delete(s.st.timeEntries, entryId)
	return nil
}

func sortEntries(entries []models.TimeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].EntryDate.Before(entries[j].EntryDate)
	})
}

func (s *Store) ListTimeEntries(ctx context.Context, milestoneId string) ([]models.TimeEntry, error) {
	defer s.lock()()
	entries := []models.TimeEntry{}
	for _, e := range s.st.timeEntries {
		if e.ProjectMilestoneID == milestoneId {
			entries = append(entries, e)
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (s *Store) ListProjectTimeEntries(ctx context.Context, projectId string) ([]models.TimeEntry, error) {
	defer s.lock()()
	entries := []models.TimeEntry{}
	for _, e := range s.st.timeEntries {
		m, ok := s.st.projectMilestones[e.ProjectMilestoneID]
		if !ok {
			continue
		}
		if d, ok := s.st.projectDeliverables[m.ProjectDeliverableID]; ok && d.ProjectID == projectId {
			entries = append(entries, e)
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (s *Store) SumDeliverableHours(ctx context.Context, deliverableId, excludeEntryId string) (decimal.Decimal, error) {
	defer s.lock()()
	total := decimal.Zero
	for id, e := range s.st.timeEntries {
		if id == excludeEntryId {
			continue
		}
		if m, ok := s.st.projectMilestones[e.ProjectMilestoneID]; ok && m.ProjectDeliverableID == deliverableId {
			total = total.Add(e.Hours)
		}
	}
	return total, nil
}

func (s *Store) UpsertAccessCode(ctx context.Context, c *models.QuoteAccessCode) error {
	defer s.lock()()
	if existing, ok := s.st.accessCodes[c.QuoteID]; ok {
		c.ID = existing.ID
	}
	c.ID = newID(c.ID)
	s.st.accessCodes[c.QuoteID] = *c
	return nil
}

func (s *Store) GetAccessCode(ctx context.Context, quoteId string) (*models.QuoteAccessCode, error) {
	defer s.lock()()
	c, ok := s.st.accessCodes[quoteId]
	if !ok {
		return nil, notFound("access code")
	}
	return &c, nil
}

func (s *Store) CreateQuoteAction(ctx context.Context, a *models.QuoteAction) error {
	defer s.lock()()
	if a.Action.IsTerminal() {
		for _, existing := range s.st.actions {
			if existing.QuoteVersionID == a.QuoteVersionID && existing.Action.IsTerminal() {
				return fmt.Errorf("failed to insert quote action: version %s already answered", a.QuoteVersionID)
			}
		}
	}
	a.ID = newID(a.ID)
	s.st.actions = append(s.st.actions, *a)
	return nil
}

func (s *Store) ListQuoteActions(ctx context.Context, quoteId string) ([]models.QuoteAction, error) {
	defer s.lock()()
	actions := []models.QuoteAction{}
	for _, a := range s.st.actions {
		if a.QuoteID == quoteId {
			actions = append(actions, a)
		}
	}
	return actions, nil
}

func (s *Store) GetTerminalAction(ctx context.Context, versionId string) (*models.QuoteAction, error) {
	defer s.lock()()
	for _, a := range s.st.actions {
		if a.QuoteVersionID == versionId && a.Action.IsTerminal() {
			return &a, nil
		}
	}
	return nil, notFound("quote action")
}
