package scan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_AddAndField(t *testing.T) {
	a := New(nil)
	assert.True(t, a.Add("SN-001"))
	assert.Equal(t, "SN-001", a.Field())
	assert.True(t, a.Add("SN-002"))
	assert.True(t, a.Add(" SN-003 "))
	assert.Equal(t, "SN-001,SN-002,SN-003", a.Field())
	assert.Equal(t, []string{"SN-001", "SN-002", "SN-003"}, a.Codes())
}

func TestAccumulator_DuplicateIsIdempotent(t *testing.T) {
	var notified []string
	a := New(func(code string) { notified = append(notified, code) })

	assert.True(t, a.Add("A"))
	assert.True(t, a.Add("B"))
	before := a.Field()

	assert.False(t, a.Add("A"))
	assert.False(t, a.Add("A"))
	assert.Equal(t, before, a.Field())
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []string{"A", "A"}, notified, "one notification per rejected add")
}

func TestAccumulator_BlankIgnoredSilently(t *testing.T) {
	called := false
	a := New(func(string) { called = true })
	assert.False(t, a.Add(""))
	assert.False(t, a.Add("   "))
	assert.False(t, called)
	assert.Equal(t, "", a.Field())
}

func TestAccumulator_CaseSensitive(t *testing.T) {
	a := New(nil)
	assert.True(t, a.Add("abc"))
	assert.True(t, a.Add("ABC"))
	assert.Equal(t, "abc,ABC", a.Field())
}

func TestAccumulator_SetFieldIsAuthoritative(t *testing.T) {
	a := New(nil)
	a.Add("A")
	a.Add("B")

	a.SetField("B, C,,C ,D")
	assert.Equal(t, []string{"B", "C", "D"}, a.Codes())
	assert.Equal(t, "B,C,D", a.Field())

	assert.False(t, a.Add("C"), "manually typed codes count as seen")
	assert.True(t, a.Add("A"), "removed codes may be scanned again")
	assert.Equal(t, "B,C,D,A", a.Field())
}

func TestAccumulator_Reset(t *testing.T) {
	a := New(nil)
	a.Add("A")
	a.Reset()
	assert.Equal(t, "", a.Field())
	assert.Empty(t, a.Codes())
	assert.True(t, a.Add("A"))
}

func TestAccumulator_ZeroValueUsable(t *testing.T) {
	var a Accumulator
	assert.True(t, a.Add("A"))
	assert.False(t, a.Add("A"))
}

func TestAccumulator_ConcurrentAdds(t *testing.T) {
	a := New(nil)
	var wg sync.WaitGroup
	accepted := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accepted <- a.Add("SAME")
		}()
	}
	wg.Wait()
	close(accepted)
	n := 0
	for ok := range accepted {
		if ok {
			n++
		}
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, "SAME", a.Field())
}
