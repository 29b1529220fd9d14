package outcome

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestSuccessAndFailure(t *testing.T) {
	ok := Success[int, error](42)
	assert.True(t, ok.IsSuccess())
	assert.False(t, ok.IsFailure())
	assert.Equal(t, 42, ok.Value())
	assert.Nil(t, ok.Err())

	bad := Failure[int](errBoom)
	assert.True(t, bad.IsFailure())
	assert.Equal(t, 0, bad.Value())
	assert.ErrorIs(t, bad.Err(), errBoom)

	_, err, success := bad.Unpack()
	assert.False(t, success)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 7, bad.OrElse(7))
	assert.Equal(t, 42, ok.OrElse(7))
}

func TestMapPassesFailureThrough(t *testing.T) {
	doubled := Map(Success[int, error](21), func(v int) int { return v * 2 })
	assert.Equal(t, 42, doubled.Value())

	called := false
	failed := Map(Failure[int](errBoom), func(v int) string {
		called = true
		return strconv.Itoa(v)
	})
	assert.False(t, called)
	assert.ErrorIs(t, failed.Err(), errBoom)
}

func TestFlatMapShortCircuits(t *testing.T) {
	parse := func(s string) Outcome[int, error] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Failure[int](err)
		}
		return Success[int, error](n)
	}

	assert.Equal(t, 12, FlatMap(Success[string, error]("12"), parse).Value())
	assert.True(t, FlatMap(Success[string, error]("x"), parse).IsFailure())
	assert.ErrorIs(t, FlatMap(Failure[string](errBoom), parse).Err(), errBoom)
}

func TestMapErrorAndMatch(t *testing.T) {
	mapped := MapError(Failure[int](errBoom), func(err error) string { return "wrapped: " + err.Error() })
	assert.Equal(t, "wrapped: boom", mapped.Err())

	untouched := MapError(Success[int, error](1), func(err error) string { return "never" })
	assert.Equal(t, 1, untouched.Value())

	describe := func(o Outcome[int, error]) string {
		return Match(o,
			func(v int) string { return "value " + strconv.Itoa(v) },
			func(err error) string { return "error " + err.Error() },
		)
	}
	assert.Equal(t, "value 3", describe(Success[int, error](3)))
	assert.Equal(t, "error boom", describe(Failure[int](errBoom)))

	recovered := Failure[int](errBoom).Recover(func(error) int { return -1 })
	assert.Equal(t, -1, recovered.Value())
}

func TestValidateStopsAtFirstFailure(t *testing.T) {
	var ran []string
	step := func(name string, fail bool) func(int) Outcome[int, error] {
		return func(v int) Outcome[int, error] {
			ran = append(ran, name)
			if fail {
				return Failure[int](errors.New(name))
			}
			return Success[int, error](v + 1)
		}
	}

	result := Validate(Success[int, error](0)).
		Check(step("first", false)).
		Check(step("second", true)).
		Check(step("third", false)).
		Result()

	require.True(t, result.IsFailure())
	assert.EqualError(t, result.Err(), "second")
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestValidateFromFailureSkipsEverything(t *testing.T) {
	called := false
	result := Validate(Failure[int](errBoom)).
		Check(func(v int) Outcome[int, error] {
			called = true
			return Success[int, error](v)
		}).
		Result()

	assert.False(t, called)
	assert.ErrorIs(t, result.Err(), errBoom)
}

func TestThenChangesType(t *testing.T) {
	v := Then(Validate(Success[int, error](5)), func(n int) Outcome[string, error] {
		return Success[string, error](strconv.Itoa(n * 2))
	})
	assert.Equal(t, "10", v.Result().Value())
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(Success[int, error](3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"isSuccess":true,"value":3}`, string(data))

	data, err = json.Marshal(Failure[int](errBoom))
	require.NoError(t, err)
	assert.JSONEq(t, `{"isSuccess":false,"error":"boom"}`, string(data))
}
