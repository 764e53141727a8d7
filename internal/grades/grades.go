// Package grades holds the pure mark arithmetic: subject totals, SGPA
// per semester and CGPA across semesters. All results are rounded to
// two decimal places.
package grades

import (
	"math"

	"github.com/campusbook/classwork/internal/apperr"
)

const (
	markMax = 100
	gpaMax  = 10
)

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// SubjectTotal sums internal and end-term marks. Each component must be
// within [0,100].
func SubjectTotal(internal, endTerm float64) (float64, error) {
	if internal < 0 || internal > markMax {
		return 0, apperr.E(apperr.OutOfRange, "internal marks %.2f outside [0,%d]", internal, markMax)
	}
	if endTerm < 0 || endTerm > markMax {
		return 0, apperr.E(apperr.OutOfRange, "end-term marks %.2f outside [0,%d]", endTerm, markMax)
	}
	return round2(internal + endTerm), nil
}

// SGPA maps each subject total linearly onto a 0..10 scale and averages.
// No per-subject credit weighting.
func SGPA(totals []float64) (float64, error) {
	if len(totals) == 0 {
		return 0, apperr.E(apperr.EmptyInput, "no subjects to compute SGPA from")
	}
	sum := 0.0
	for _, t := range totals {
		if t < 0 || t > markMax {
			return 0, apperr.E(apperr.OutOfRange, "subject total %.2f outside [0,%d]", t, markMax)
		}
		sum += t / 10
	}
	return round2(sum / float64(len(totals))), nil
}

// CGPA averages the present SGPA values. An empty or all-nil input yields
// 0, not an error; this asymmetry with SGPA is deliberate.
func CGPA(sgpas []*float64) (float64, error) {
	sum, n := 0.0, 0
	for _, s := range sgpas {
		if s == nil {
			continue
		}
		if *s < 0 || *s > gpaMax {
			return 0, apperr.E(apperr.OutOfRange, "sgpa %.2f outside [0,%d]", *s, gpaMax)
		}
		sum += *s
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return round2(sum / float64(n)), nil
}
