package sanitize_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/quizforge/quizforge/internal/sanitize"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []int64
	}{
		{"valid tokens", []string{"1", "2", "4"}, []int64{1, 2, 4}},
		{"drops non digit tokens", []string{"1", "invalid", "2", "3abc", "4"}, []int64{1, 2, 4}},
		{"drops signs and whitespace", []string{"-1", "+2", " 3", "4 ", "5"}, []int64{5}},
		{"keeps duplicates and order", []string{"9", "3", "9", "1"}, []int64{9, 3, 9, 1}},
		{"empty input", nil, []int64{}},
		{"all invalid", []string{"", "x", "1.5"}, []int64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := sanitize.Normalize(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Normalize(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestUniqueQuestionIDs(t *testing.T) {
	t.Run("empty fails", func(t *testing.T) {
		if _, err := sanitize.UniqueQuestionIDs(nil); err == nil {
			t.Fatal("want error for empty list")
		}
	})
	t.Run("all invalid tokens fails as empty", func(t *testing.T) {
		if _, err := sanitize.UniqueQuestionIDs([]string{"a", "b"}); err == nil {
			t.Fatal("want error when nothing survives filtering")
		}
	})
	t.Run("duplicates fail", func(t *testing.T) {
		_, err := sanitize.UniqueQuestionIDs([]string{"1", "2", "1"})
		var verr *sanitize.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
		if verr.Msg != "duplicate question ids" {
			t.Errorf("msg = %q", verr.Msg)
		}
	})
	t.Run("over limit fails", func(t *testing.T) {
		var in []string
		for i := 0; i < sanitize.MaxQuestionIDs+1; i++ {
			in = append(in, fmt.Sprint(i+1))
		}
		if _, err := sanitize.UniqueQuestionIDs(in); err == nil {
			t.Fatal("want error over the limit")
		}
	})
	t.Run("valid list survives", func(t *testing.T) {
		got, err := sanitize.UniqueQuestionIDs([]string{"3", "nope", "1"})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, []int64{3, 1}) {
			t.Errorf("got %v", got)
		}
	})
}

func TestUniqueChoiceIDs(t *testing.T) {
	t.Run("empty is allowed", func(t *testing.T) {
		got, err := sanitize.UniqueChoiceIDs(nil)
		if err != nil || len(got) != 0 {
			t.Fatalf("got %v, %v", got, err)
		}
	})
	t.Run("duplicates fail", func(t *testing.T) {
		if _, err := sanitize.UniqueChoiceIDs([]string{"5", "5"}); err == nil {
			t.Fatal("want duplicate error")
		}
	})
	t.Run("over limit fails", func(t *testing.T) {
		var in []string
		for i := 0; i < sanitize.MaxChoiceIDs+1; i++ {
			in = append(in, fmt.Sprint(i+1))
		}
		if _, err := sanitize.UniqueChoiceIDs(in); err == nil {
			t.Fatal("want error over the limit")
		}
	})
	t.Run("at limit passes", func(t *testing.T) {
		var in []string
		for i := 0; i < sanitize.MaxChoiceIDs; i++ {
			in = append(in, fmt.Sprint(i+1))
		}
		got, err := sanitize.UniqueChoiceIDs(in)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != sanitize.MaxChoiceIDs {
			t.Errorf("len = %d", len(got))
		}
	})
}

func TestUniqueIDs(t *testing.T) {
	got := sanitize.UniqueIDs([]string{"2", "x", "1", "2", "1", "3"})
	if !reflect.DeepEqual(got, []int64{2, 1, 3}) {
		t.Errorf("got %v", got)
	}
}
