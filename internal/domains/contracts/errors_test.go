package contracts

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapCategorizedError(t *testing.T) {
	sentinel := errors.New("account already in use")
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"tagged with given category", WrapCategorizedError(ErrorCategoryLedger, sentinel), ErrorCategoryLedger},
		{"unknown category falls back to api", WrapCategorizedError("storage", sentinel), ErrorCategoryAPI},
		{"untagged error", sentinel, ErrorCategoryAPI},
		{"foreign tag normalized", &CategorizedError{Category: "weird", Err: sentinel}, ErrorCategoryAPI},
		{
			"innermost tag wins",
			WrapCategorizedError(ErrorCategoryRuntime, fmt.Errorf("invoke: %w", WrapCategorizedError(ErrorCategoryProgram, sentinel))),
			ErrorCategoryProgram,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorCategory(tc.err); got != tc.want {
				t.Fatalf("unexpected category: got=%q want=%q", got, tc.want)
			}
			if !errors.Is(tc.err, sentinel) {
				t.Fatal("sentinel must stay reachable through the tag")
			}
		})
	}
}

func TestWrapCategorizedErrorKeepsNil(t *testing.T) {
	if WrapCategorizedError(ErrorCategoryProgram, nil) != nil {
		t.Fatal("nil error must stay nil")
	}
}
