package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/barber-availability/internal/availability"
	appconfig "github.com/wolfman30/barber-availability/internal/config"
	"github.com/wolfman30/barber-availability/internal/store"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

type recordingWriter struct {
	order   []string
	failOn  string
	failErr error
}

func (r *recordingWriter) record(kind string) error {
	r.order = append(r.order, kind)
	if kind == r.failOn {
		return r.failErr
	}
	return nil
}

func (r *recordingWriter) PutBusiness(context.Context, availability.Business) error {
	return r.record("business")
}

func (r *recordingWriter) PutService(context.Context, availability.Service) error {
	return r.record("service")
}

func (r *recordingWriter) PutStaffMember(context.Context, availability.StaffMember) error {
	return r.record("staff")
}

func (r *recordingWriter) PutAppointment(context.Context, string, availability.Appointment) error {
	return r.record("appointment")
}

func loadTestFixture(t *testing.T) *store.Fixture {
	t.Helper()
	f, err := store.LoadFixture("../../testdata/fixture.json")
	require.NoError(t, err)
	return f
}

func TestSeedWritesParentsFirst(t *testing.T) {
	f := loadTestFixture(t)
	w := &recordingWriter{}

	require.NoError(t, seed(context.Background(), w, f, logging.Default()))

	want := len(f.Businesses) + len(f.Services) + len(f.Staff) + len(f.Appointments)
	require.Len(t, w.order, want)
	assert.Equal(t, "business", w.order[0])
	assert.Equal(t, "appointment", w.order[len(w.order)-1])
}

func TestSeedStopsOnFirstError(t *testing.T) {
	f := loadTestFixture(t)
	w := &recordingWriter{failOn: "staff", failErr: errors.New("throttled")}

	err := seed(context.Background(), w, f, logging.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.NotContains(t, w.order, "appointment")
}

func TestOpenWriterRejectsMemoryBackend(t *testing.T) {
	_, closeFn, err := openWriter(context.Background(), &appconfig.Config{StoreBackend: appconfig.BackendMemory})
	require.Error(t, err)
	closeFn()
}
