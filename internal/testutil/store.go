// Package testutil provides in-memory fakes of the store and messenger.
package testutil

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/edgard/dymbot/internal/database"
)

// FakeStore is an in-memory database.Store. Set Errors[method] to make a method fail.
type FakeStore struct {
	mu        sync.Mutex
	admins    map[int64]database.Admin
	customers map[int64]database.Customer
	envelopes map[[2]int64]int64
	clock     time.Time

	Errors map[string]error
	// Calls counts invocations per method name.
	Calls map[string]int
}

var _ database.Store = (*FakeStore)(nil)

// NewFakeStore creates an empty store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		admins:    make(map[int64]database.Admin),
		customers: make(map[int64]database.Customer),
		envelopes: make(map[[2]int64]int64),
		clock:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Errors:    make(map[string]error),
		Calls:     make(map[string]int),
	}
}

// Fail makes method return err until cleared with Fail(method, nil).
func (f *FakeStore) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.Errors, method)
		return
	}
	f.Errors[method] = err
}

// Count returns how many times method was called.
func (f *FakeStore) Count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

// AddAdmin seeds an admin row.
func (f *FakeStore) AddAdmin(userID int64, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins[userID] = database.Admin{UserID: userID, Username: username, AddedAt: f.tick()}
}

// AddCustomer seeds a customer row.
func (f *FakeStore) AddCustomer(c database.Customer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.Timestamp = f.tick()
	f.customers[c.UserID] = c
}

// Customers returns a snapshot of every customer row.
func (f *FakeStore) Customers() map[int64]database.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]database.Customer, len(f.customers))
	for k, v := range f.customers {
		out[k] = v
	}
	return out
}

// AdminIDs returns the sorted ids of every admin row.
func (f *FakeStore) AdminIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.admins))
	for id := range f.admins {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (f *FakeStore) tick() sql.NullTime {
	f.clock = f.clock.Add(time.Second)
	return sql.NullTime{Time: f.clock, Valid: true}
}

// enter records a call and returns the injected error, if any. Caller holds mu.
func (f *FakeStore) enter(method string) error {
	f.Calls[method]++
	return f.Errors[method]
}

func (f *FakeStore) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("Ping")
}

func (f *FakeStore) IsAdmin(_ context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("IsAdmin"); err != nil {
		return false, err
	}
	_, ok := f.admins[userID]
	return ok, nil
}

func (f *FakeStore) GetAdmin(_ context.Context, userID int64) (*database.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetAdmin"); err != nil {
		return nil, err
	}
	a, ok := f.admins[userID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *FakeStore) ListAdmins(context.Context) ([]database.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListAdmins"); err != nil {
		return nil, err
	}
	out := make([]database.Admin, 0, len(f.admins))
	for _, a := range f.admins {
		if adder, ok := f.admins[a.AddedBy]; ok {
			a.AddedByUsername = adder.Username
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Time.Equal(out[j].AddedAt.Time) {
			return out[i].AddedAt.Time.Before(out[j].AddedAt.Time)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (f *FakeStore) InsertAdmin(_ context.Context, admin *database.Admin) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("InsertAdmin"); err != nil {
		return false, err
	}
	if _, ok := f.admins[admin.UserID]; ok {
		return false, nil
	}
	a := *admin
	a.AddedAt = f.tick()
	f.admins[a.UserID] = a
	return true, nil
}

func (f *FakeStore) DeleteAdminsExcept(_ context.Context, keepID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteAdminsExcept"); err != nil {
		return 0, err
	}
	var deleted int64
	for id := range f.admins {
		if id != keepID {
			delete(f.admins, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *FakeStore) CountAdmins(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountAdmins"); err != nil {
		return 0, err
	}
	return len(f.admins), nil
}

func (f *FakeStore) GetCustomer(_ context.Context, userID int64) (*database.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetCustomer"); err != nil {
		return nil, err
	}
	c, ok := f.customers[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *FakeStore) UpsertCustomer(_ context.Context, customer *database.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpsertCustomer"); err != nil {
		return err
	}
	c := *customer
	c.Timestamp = f.tick()
	f.customers[c.UserID] = c
	return nil
}

func (f *FakeStore) DeleteAllCustomers(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteAllCustomers"); err != nil {
		return 0, err
	}
	n := int64(len(f.customers))
	f.customers = make(map[int64]database.Customer)
	return n, nil
}

// nonAdminCustomers returns non-admin customers newest first. Caller holds mu.
func (f *FakeStore) nonAdminCustomers() []database.Customer {
	out := make([]database.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		if !c.IsAdmin {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Time.Equal(out[j].Timestamp.Time) {
			return out[i].Timestamp.Time.After(out[j].Timestamp.Time)
		}
		return out[i].UserID > out[j].UserID
	})
	return out
}

func (f *FakeStore) ListBroadcastRecipients(context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListBroadcastRecipients"); err != nil {
		return nil, err
	}
	var ids []int64
	for _, c := range f.nonAdminCustomers() {
		ids = append(ids, c.UserID)
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *FakeStore) ListRecentCustomers(_ context.Context, limit int) ([]database.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListRecentCustomers"); err != nil {
		return nil, err
	}
	out := f.nonAdminCustomers()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeStore) CountCustomers(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountCustomers"); err != nil {
		return 0, err
	}
	return len(f.nonAdminCustomers()), nil
}

func (f *FakeStore) SurveyTimeRange(context.Context) (database.TimeRange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SurveyTimeRange"); err != nil {
		return database.TimeRange{}, err
	}
	cs := f.nonAdminCustomers()
	if len(cs) == 0 {
		return database.TimeRange{}, nil
	}
	return database.TimeRange{First: cs[len(cs)-1].Timestamp, Last: cs[0].Timestamp}, nil
}

func (f *FakeStore) GroupCounts(context.Context) ([]database.GroupCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GroupCounts"); err != nil {
		return nil, err
	}
	counts := make(map[database.GroupCount]int)
	for _, c := range f.nonAdminCustomers() {
		counts[database.GroupCount{Gender: c.Gender, AgeGroup: c.AgeGroup, VisitFreq: c.VisitFreq}]++
	}
	out := make([]database.GroupCount, 0, len(counts))
	for g, n := range counts {
		g.Count = n
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Gender+out[i].AgeGroup+out[i].VisitFreq < out[j].Gender+out[j].AgeGroup+out[j].VisitFreq
	})
	return out, nil
}

func (f *FakeStore) SaveEnvelope(_ context.Context, e *database.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SaveEnvelope"); err != nil {
		return err
	}
	f.envelopes[[2]int64{e.AdminID, int64(e.MessageID)}] = e.CustomerID
	return nil
}

func (f *FakeStore) FindEnvelope(_ context.Context, adminID int64, messageID int) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FindEnvelope"); err != nil {
		return 0, false, err
	}
	id, ok := f.envelopes[[2]int64{adminID, int64(messageID)}]
	return id, ok, nil
}

func (f *FakeStore) DeleteEnvelopesBefore(context.Context, time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteEnvelopesBefore"); err != nil {
		return 0, err
	}
	n := int64(len(f.envelopes))
	f.envelopes = make(map[[2]int64]int64)
	return n, nil
}

func (f *FakeStore) RunSQLMaintenance(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("RunSQLMaintenance")
}
