package check_test

import (
	"context"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/mailprobe/check"
	"github.com/optimode/mailprobe/types"
)

// lookupFunc adapts a function to check.MXLookup.
type lookupFunc func(ctx context.Context, name string) ([]*net.MX, error)

func (f lookupFunc) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return f(ctx, name)
}

func staticLookup(records []*net.MX, err error) check.MXLookup {
	return lookupFunc(func(context.Context, string) ([]*net.MX, error) {
		return records, err
	})
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		records  []*net.MX
		lookErr  error
		wantHost string
	}{
		{
			name:     "single record",
			records:  []*net.MX{{Host: "mail.example.org.", Pref: 10}},
			wantHost: "mail.example.org",
		},
		{
			name:     "no MX records",
			records:  []*net.MX{},
			wantHost: "",
		},
		{
			name:    "lookup error",
			lookErr: &net.DNSError{Err: "no such host", IsNotFound: true},
		},
		{
			name:    "null MX",
			records: []*net.MX{{Host: ".", Pref: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := check.NewResolverWithLookup(check.DNSConfig{Timeout: 2 * time.Second}, staticLookup(tt.records, tt.lookErr))
			host, err := r.Resolve(context.Background(), "example.org")
			if tt.wantHost == "" {
				assert.ErrorIs(t, err, types.ErrNoMailExchanger)
				assert.Empty(t, host)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
		})
	}
}

func TestResolver_SortsByPreference(t *testing.T) {
	r := check.NewResolverWithLookup(check.DNSConfig{}, staticLookup([]*net.MX{
		{Host: "mx2.example.com.", Pref: 20},
		{Host: "mx1.example.com.", Pref: 10},
		{Host: "mx3.example.com.", Pref: 30},
	}, nil))

	host, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "mx1.example.com", host)
}

func TestResolver_TieIgnoresLookupOrder(t *testing.T) {
	orders := [][]*net.MX{
		{
			{Host: "late.example.com.", Pref: 20},
			{Host: "b.example.com.", Pref: 10},
			{Host: "A.example.com.", Pref: 10},
			{Host: "c.example.com.", Pref: 10},
		},
		{
			{Host: "c.example.com.", Pref: 10},
			{Host: "A.example.com.", Pref: 10},
			{Host: "late.example.com.", Pref: 20},
			{Host: "b.example.com.", Pref: 10},
		},
		{
			{Host: "b.example.com.", Pref: 10},
			{Host: "c.example.com.", Pref: 10},
			{Host: "A.example.com.", Pref: 10},
			{Host: "late.example.com.", Pref: 20},
		},
	}

	for i, records := range orders {
		r := check.NewResolverWithLookup(check.DNSConfig{}, staticLookup(records, nil))
		host, err := r.Resolve(context.Background(), "example.com")
		require.NoError(t, err)
		assert.Equal(t, "A.example.com", host, "order %d", i)
	}
}

// The system resolver shuffles equal-preference answers; the chosen host
// must not move with it.
func TestResolver_TieStableAcrossShuffles(t *testing.T) {
	records := []*net.MX{
		{Host: "mx3.example.com.", Pref: 10},
		{Host: "mx1.example.com.", Pref: 10},
		{Host: "mx2.example.com.", Pref: 10},
	}
	rng := rand.New(rand.NewSource(1))
	r := check.NewResolverWithLookup(check.DNSConfig{}, lookupFunc(func(context.Context, string) ([]*net.MX, error) {
		out := append([]*net.MX(nil), records...)
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out, nil
	}))

	for i := 0; i < 30; i++ {
		host, err := r.Resolve(context.Background(), "example.com")
		require.NoError(t, err)
		assert.Equal(t, "mx1.example.com", host)
	}
}

func TestResolver_SkipsEmptyHostAmongOthers(t *testing.T) {
	r := check.NewResolverWithLookup(check.DNSConfig{}, staticLookup([]*net.MX{
		{Host: ".", Pref: 0},
		{Host: "mx.example.com.", Pref: 10},
	}, nil))

	host, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "mx.example.com", host)
}

func TestResolver_AppliesTimeout(t *testing.T) {
	var hadDeadline bool
	r := check.NewResolverWithLookup(check.DNSConfig{Timeout: time.Second}, lookupFunc(func(ctx context.Context, _ string) ([]*net.MX, error) {
		_, hadDeadline = ctx.Deadline()
		return []*net.MX{{Host: "mx.example.com.", Pref: 10}}, nil
	}))

	_, err := r.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	assert.True(t, hadDeadline)
}
