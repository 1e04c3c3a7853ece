package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/adapter"
	"interpreter-booking/internal/domain/ports/repository"
)

// memTxManager serializes transactional sections with a mutex so the
// concurrent-accept tests exercise a real critical section.
type memTxManager struct{ mu sync.Mutex }

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, struct{}{})
}

// memJobRepo is a small in-memory job store used by unit tests.
type memJobRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Job
	overlap bool // forced HasConfirmedOverlap answer
	saveErr error
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.Job)}
}

func (m *memJobRepo) Save(ctx context.Context, _ repository.Tx, job *model.Job) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) MarkAssignedIfPending(ctx context.Context, _ repository.Tx, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if j.Status != model.StatusPending {
		return false, nil
	}
	j.Status = model.StatusAssigned
	return true, nil
}

func (m *memJobRepo) FindPending(ctx context.Context, _ repository.Tx, jobType model.JobType, languageIDs []string) ([]*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	langs := make(map[string]bool, len(languageIDs))
	for _, id := range languageIDs {
		langs[id] = true
	}
	var out []*model.Job
	for _, j := range m.store {
		if j.Status != model.StatusPending || j.Ignore || j.JobType != jobType || !langs[j.FromLanguageID] {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Due.Before(out[k].Due) })
	return out, nil
}

func (m *memJobRepo) FindByCustomer(ctx context.Context, _ repository.Tx, customerID string, statuses []model.JobStatus) ([]*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[model.JobStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []*model.Job
	for _, j := range m.store {
		if j.CustomerID == customerID && want[j.Status] {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memJobRepo) FindExpiredPending(ctx context.Context, _ repository.Tx, now time.Time) ([]*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Job
	for _, j := range m.store {
		if j.Status == model.StatusPending && !j.IgnoreExpired && j.WillExpireAt.Before(now) {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memJobRepo) FindDueBetween(ctx context.Context, _ repository.Tx, from, to time.Time, statuses []model.JobStatus) ([]*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[model.JobStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []*model.Job
	for _, j := range m.store {
		if want[j.Status] && !j.Due.Before(from) && !j.Due.After(to) {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memJobRepo) HasConfirmedOverlap(ctx context.Context, _ repository.Tx, translatorID string, due time.Time, duration int) (bool, error) {
	return m.overlap, nil
}

// memAssignRepo stores assignment rows keyed by id.
type memAssignRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Assignment
}

func newMemAssignRepo() *memAssignRepo {
	return &memAssignRepo{store: make(map[string]*model.Assignment)}
}

func (m *memAssignRepo) Save(ctx context.Context, _ repository.Tx, a *model.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *memAssignRepo) FindActiveByJob(ctx context.Context, _ repository.Tx, jobID string) (*model.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.store {
		if a.JobID == jobID && a.Active() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memAssignRepo) FindLatestByJob(ctx context.Context, _ repository.Tx, jobID string) (*model.Assignment, error) {
	rows, _ := m.FindByJob(ctx, nil, jobID)
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[len(rows)-1], nil
}

func (m *memAssignRepo) FindByJob(ctx context.Context, _ repository.Tx, jobID string) ([]*model.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Assignment
	for _, a := range m.store {
		if a.JobID == jobID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (m *memAssignRepo) FindActiveByTranslator(ctx context.Context, _ repository.Tx, translatorID string) ([]*model.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Assignment
	for _, a := range m.store {
		if a.TranslatorID == translatorID && a.Active() {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memUserRepo holds accounts, meta, translator profiles, and the blacklist.
type memUserRepo struct {
	mu        sync.RWMutex
	users     map[string]*model.User
	metas     map[string]*model.UserMeta
	profiles  map[string]*model.TranslatorProfile
	blacklist map[string]map[string]bool // customer -> translator
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:     make(map[string]*model.User),
		metas:     make(map[string]*model.UserMeta),
		profiles:  make(map[string]*model.TranslatorProfile),
		blacklist: make(map[string]map[string]bool),
	}
}

func (m *memUserRepo) add(u *model.User, meta *model.UserMeta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	meta.UserID = u.ID
	m.metas[u.ID] = meta
}

func (m *memUserRepo) addProfile(p *model.TranslatorProfile) {
	m.mu.Lock()
	m.profiles[p.User.ID] = p
	m.mu.Unlock()
	m.add(&p.User, &p.Meta)
}

func (m *memUserRepo) ban(customerID, translatorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blacklist[customerID] == nil {
		m.blacklist[customerID] = make(map[string]bool)
	}
	m.blacklist[customerID][translatorID] = true
}

func (m *memUserRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, _ repository.Tx, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetMeta(ctx context.Context, _ repository.Tx, userID string) (*model.UserMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.metas[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *meta
	return &cp, nil
}

func (m *memUserRepo) FindTranslatorProfile(ctx context.Context, _ repository.Tx, userID string) (*model.TranslatorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memUserRepo) ListActiveTranslators(ctx context.Context, _ repository.Tx, t model.TranslatorType) ([]*model.TranslatorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.TranslatorProfile
	for _, p := range m.profiles {
		if p.User.Enabled && p.Meta.TranslatorType == t {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].User.ID < out[k].User.ID })
	return out, nil
}

func (m *memUserRepo) IsBlacklisted(ctx context.Context, _ repository.Tx, customerID, translatorID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blacklist[customerID][translatorID], nil
}

// memLangRepo resolves languages by id.
type memLangRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Language
}

func newMemLangRepo() *memLangRepo {
	return &memLangRepo{store: make(map[string]*model.Language)}
}

func (m *memLangRepo) add(l *model.Language) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[l.ID] = l
}

func (m *memLangRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Language, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLangRepo) ListActive(ctx context.Context, _ repository.Tx) ([]*model.Language, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Language
	for _, l := range m.store {
		if l.Active {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memAuditRepo appends entries to a slice.
type memAuditRepo struct {
	mu      sync.Mutex
	entries []*model.AuditEntry
}

func (m *memAuditRepo) Append(ctx context.Context, _ repository.Tx, e *model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAuditRepo) FindByJob(ctx context.Context, _ repository.Tx, jobID string) ([]*model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AuditEntry
	for _, e := range m.entries {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out, nil
}

// memDistanceRepo stores one distance row per job.
type memDistanceRepo struct {
	mu    sync.Mutex
	store map[string]*model.Distance
}

func newMemDistanceRepo() *memDistanceRepo {
	return &memDistanceRepo{store: make(map[string]*model.Distance)}
}

func (m *memDistanceRepo) UpdateByJob(ctx context.Context, _ repository.Tx, d *model.Distance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.store[d.JobID] = &cp
	return nil
}

func (m *memDistanceRepo) FindByJob(ctx context.Context, _ repository.Tx, jobID string) (*model.Distance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// Channel adapters recording what was sent.

type memPush struct {
	mu   sync.Mutex
	sent []adapter.PushPayload
}

func (m *memPush) Send(ctx context.Context, p *adapter.PushPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, *p)
	return nil
}

type smsMessage struct{ From, To, Body string }

type memSMS struct {
	mu   sync.Mutex
	sent []smsMessage
}

func (m *memSMS) Send(ctx context.Context, from, to, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, smsMessage{From: from, To: to, Body: message})
	return nil
}

type mailMessage struct {
	To, Name, Subject, Template string
	Data                        map[string]interface{}
}

type memMailer struct {
	mu   sync.Mutex
	sent []mailMessage
}

func (m *memMailer) Send(ctx context.Context, toEmail, toName, subject, template string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mailMessage{To: toEmail, Name: toName, Subject: subject, Template: template, Data: data})
	return nil
}

type memBus struct {
	mu     sync.Mutex
	events []adapter.Event
}

func (m *memBus) Publish(ctx context.Context, e adapter.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// fixedExpiry is a predictable policy for tests: the acceptance deadline
// equals due, and the night flag is toggled directly.
type fixedExpiry struct{ night bool }

func (f *fixedExpiry) WillExpireAt(due, _ time.Time) time.Time { return due }
func (f *fixedExpiry) IsNightTime(time.Time) bool              { return f.night }
func (f *fixedExpiry) NextBusinessTime(t time.Time) time.Time  { return t.Add(8 * time.Hour) }

// keyLocalizer renders the key plus its args so assertions can match on
// catalog keys without loading the real catalog.
type keyLocalizer struct{}

func (keyLocalizer) T(key string, args ...interface{}) string {
	if len(args) == 0 {
		return key
	}
	return key + " " + fmt.Sprint(args...)
}

// fixture wires every use case against the in-memory collaborators.
type fixture struct {
	txm       *memTxManager
	jobs      *memJobRepo
	assigns   *memAssignRepo
	users     *memUserRepo
	langs     *memLangRepo
	audits    *memAuditRepo
	distances *memDistanceRepo
	push      *memPush
	sms       *memSMS
	mailer    *memMailer
	bus       *memBus
	expiry    *fixedExpiry

	matcher    *matchingUC
	dispatcher *notificationUC
	booking    *bookingUC
	lifecycle  *lifecycleUC
	sweep      *sweepUC
}

func newFixture() *fixture {
	log := zerolog.Nop()
	f := &fixture{
		txm:       &memTxManager{},
		jobs:      newMemJobRepo(),
		assigns:   newMemAssignRepo(),
		users:     newMemUserRepo(),
		langs:     newMemLangRepo(),
		audits:    &memAuditRepo{},
		distances: newMemDistanceRepo(),
		push:      &memPush{},
		sms:       &memSMS{},
		mailer:    &memMailer{},
		bus:       &memBus{},
		expiry:    &fixedExpiry{},
	}
	f.matcher = NewMatchingUseCase(f.jobs, f.users, &log)
	f.dispatcher = NewNotificationDispatcher(f.users, f.langs, f.matcher, f.push, f.sms, f.mailer, f.expiry, keyLocalizer{}, "+4610111213", &log)
	f.booking = NewBookingUseCase(f.txm, f.jobs, f.users, f.audits, f.assigns, f.dispatcher, f.bus, f.expiry, 5*time.Minute, &log)
	f.lifecycle = NewLifecycleUseCase(f.txm, f.jobs, f.assigns, f.users, f.langs, f.audits, f.dispatcher, f.matcher, f.bus, f.expiry, keyLocalizer{}, "+4610111213", &log)
	f.sweep = NewSweepUseCase(f.txm, f.jobs, f.assigns, f.users, f.langs, f.audits, f.dispatcher, f.bus, &log)
	return f
}

func (f *fixture) addCustomer(id string) *model.User {
	u := &model.User{ID: id, Type: model.UserTypeCustomer, Email: id + "@example.com", Name: "Customer " + id, Mobile: "+4670" + id, Enabled: true}
	f.users.add(u, &model.UserMeta{ConsumerType: "", City: "Stockholm"})
	return u
}

func (f *fixture) addTranslator(id string, meta model.UserMeta, langIDs ...string) *model.TranslatorProfile {
	if meta.TranslatorType == "" {
		meta.TranslatorType = model.TranslatorProfessional
	}
	if meta.TranslatorLevel == "" {
		meta.TranslatorLevel = model.LevelCertified
	}
	p := &model.TranslatorProfile{
		User:        model.User{ID: id, Type: model.UserTypeTranslator, Email: id + "@example.com", Name: "Translator " + id, Mobile: "+4671" + id, Enabled: true},
		Meta:        meta,
		LanguageIDs: langIDs,
	}
	f.users.addProfile(p)
	return p
}

func (f *fixture) addJob(job *model.Job) *model.Job {
	if job.Status == "" {
		job.Status = model.StatusPending
	}
	if job.JobType == "" {
		job.JobType = model.JobTypePaid
	}
	_ = f.jobs.Save(context.Background(), repository.NoTX, job)
	return job
}
