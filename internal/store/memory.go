package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/barber-availability/internal/availability"
)

// Fixture is the on-disk shape used by the memory backend and cmd/seed.
type Fixture struct {
	Businesses   []availability.Business    `json:"businesses"`
	Services     []availability.Service     `json:"services"`
	Staff        []availability.StaffMember `json:"staff"`
	Appointments []FixtureAppointment       `json:"appointments"`
}

// FixtureAppointment carries the owning business alongside the appointment.
type FixtureAppointment struct {
	BusinessID string `json:"businessId"`
	availability.Appointment
}

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture JSON and validates every staff schedule.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("store: decode fixture: %w", err)
	}
	for _, m := range f.Staff {
		if err := m.Availability.Validate(); err != nil {
			return nil, fmt.Errorf("store: fixture staff %s: %w", m.ID, err)
		}
	}
	return &f, nil
}

type scopedKey struct {
	businessID string
	id         string
}

// MemoryStore serves records held in process. Lists come back in insertion order.
type MemoryStore struct {
	mu           sync.RWMutex
	businesses   map[string]availability.Business
	services     map[scopedKey]availability.Service
	serviceOrder map[string][]string
	staff        map[scopedKey]availability.StaffMember
	staffOrder   map[string][]string
	appointments map[scopedKey][]availability.Appointment
}

var (
	_ availability.StaffDirectory         = (*MemoryStore)(nil)
	_ availability.ServiceCatalog         = (*MemoryStore)(nil)
	_ availability.AppointmentLedger      = (*MemoryStore)(nil)
	_ availability.RangeAppointmentLedger = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		businesses:   make(map[string]availability.Business),
		services:     make(map[scopedKey]availability.Service),
		serviceOrder: make(map[string][]string),
		staff:        make(map[scopedKey]availability.StaffMember),
		staffOrder:   make(map[string][]string),
		appointments: make(map[scopedKey][]availability.Appointment),
	}
}

// NewMemoryStoreFromFixture builds a store holding every record in f.
func NewMemoryStoreFromFixture(f *Fixture) (*MemoryStore, error) {
	s := NewMemoryStore()
	if f == nil {
		return s, nil
	}
	for _, b := range f.Businesses {
		s.PutBusiness(b)
	}
	for _, svc := range f.Services {
		s.PutService(svc)
	}
	for _, m := range f.Staff {
		if err := s.PutStaffMember(m); err != nil {
			return nil, err
		}
	}
	for _, a := range f.Appointments {
		s.PutAppointment(a.BusinessID, a.Appointment)
	}
	return s, nil
}

func (s *MemoryStore) PutBusiness(b availability.Business) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses[b.ID] = b
}

func (s *MemoryStore) PutService(svc availability.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopedKey{svc.BusinessID, svc.ID}
	if _, exists := s.services[key]; !exists {
		s.serviceOrder[svc.BusinessID] = append(s.serviceOrder[svc.BusinessID], svc.ID)
	}
	s.services[key] = svc
}

func (s *MemoryStore) PutStaffMember(m availability.StaffMember) error {
	if err := m.Availability.Validate(); err != nil {
		return fmt.Errorf("store: staff %s: %w", m.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopedKey{m.BusinessID, m.ID}
	if _, exists := s.staff[key]; !exists {
		s.staffOrder[m.BusinessID] = append(s.staffOrder[m.BusinessID], m.ID)
	}
	s.staff[key] = m
	return nil
}

func (s *MemoryStore) PutAppointment(businessID string, a availability.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopedKey{businessID, a.StaffID}
	s.appointments[key] = append(s.appointments[key], a)
}

func (s *MemoryStore) GetBusiness(_ context.Context, businessID string) (availability.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[businessID]
	if !ok {
		return availability.Business{}, fmt.Errorf("store: business %s: %w", businessID, availability.ErrNotFound)
	}
	return b, nil
}

func (s *MemoryStore) GetService(_ context.Context, businessID, serviceID string) (availability.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[scopedKey{businessID, serviceID}]
	if !ok {
		return availability.Service{}, fmt.Errorf("store: service %s: %w", serviceID, availability.ErrNotFound)
	}
	return svc, nil
}

func (s *MemoryStore) ListServices(_ context.Context, businessID string) ([]availability.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]availability.Service, 0, len(s.serviceOrder[businessID]))
	for _, id := range s.serviceOrder[businessID] {
		out = append(out, s.services[scopedKey{businessID, id}])
	}
	return out, nil
}

func (s *MemoryStore) GetStaffMember(_ context.Context, businessID, staffID string) (availability.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.staff[scopedKey{businessID, staffID}]
	if !ok {
		return availability.StaffMember{}, fmt.Errorf("store: staff %s: %w", staffID, availability.ErrNotFound)
	}
	return m, nil
}

func (s *MemoryStore) ListStaffMembers(_ context.Context, businessID string) ([]availability.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]availability.StaffMember, 0, len(s.staffOrder[businessID]))
	for _, id := range s.staffOrder[businessID] {
		out = append(out, s.staff[scopedKey{businessID, id}])
	}
	return out, nil
}

func (s *MemoryStore) ListAppointments(ctx context.Context, businessID, staffID string, date civil.Date) ([]availability.Appointment, error) {
	return s.ListAppointmentsBetween(ctx, businessID, staffID, date, date)
}

func (s *MemoryStore) ListAppointmentsBetween(_ context.Context, businessID, staffID string, from, to civil.Date) ([]availability.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []availability.Appointment{}
	for _, a := range s.appointments[scopedKey{businessID, staffID}] {
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].InitialTime < out[j].InitialTime
	})
	return out, nil
}
