package elements_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/browsergrid/api/schemas"
	"github.com/xkilldash9x/browsergrid/internal/elements"
	"github.com/xkilldash9x/browsergrid/internal/mocks"
)

func TestManager_StoreAndGet(t *testing.T) {
	m := elements.NewManager()
	el := new(mocks.MockElement)

	id := m.Store("session-a", el)
	require.NotEmpty(t, id)

	got, err := m.Get("session-a", id)
	require.NoError(t, err)
	assert.Same(t, el, got)
}

func TestManager_GetUnknownSession(t *testing.T) {
	m := elements.NewManager()

	_, err := m.Get("no-such-session", "no-such-element")
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemas.ErrElementNotFound))
}

func TestManager_GetUnknownElementInKnownSession(t *testing.T) {
	m := elements.NewManager()
	m.Store("session-a", new(mocks.MockElement))

	_, err := m.Get("session-a", "bogus-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemas.ErrElementNotFound))
}

func TestManager_ClearSessionReleasesAllEntries(t *testing.T) {
	m := elements.NewManager()

	const n = 50
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, m.Store("session-a", new(mocks.MockElement)))
	}
	require.Equal(t, n, m.Count("session-a"))

	m.ClearSession("session-a")
	assert.Zero(t, m.Count("session-a"))

	for _, id := range ids {
		_, err := m.Get("session-a", id)
		assert.True(t, errors.Is(err, schemas.ErrElementNotFound))
	}
}

func TestManager_NoCrossSessionResolution(t *testing.T) {
	m := elements.NewManager()

	id := m.Store("session-a", new(mocks.MockElement))

	// The same id string must not resolve under another session.
	_, err := m.Get("session-b", id)
	assert.True(t, errors.Is(err, schemas.ErrElementNotFound))
}

func TestManager_ConcurrentStoreAndGet(t *testing.T) {
	m := elements.NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			session := fmt.Sprintf("session-%d", worker%2)
			for j := 0; j < 100; j++ {
				id := m.Store(session, new(mocks.MockElement))
				_, err := m.Get(session, id)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 400, m.Count("session-0"))
	assert.Equal(t, 400, m.Count("session-1"))
}
