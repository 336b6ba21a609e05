// Package wiki defines the record types shared across the harvest pipeline
// and the clients that talk to the Wikipedia action API.
package wiki

// ArticleRef identifies an article discovered by the category crawl. Category
// is the provenance subcategory, stored without the "Category:" prefix.
type ArticleRef struct {
	PageID   int64
	Title    string
	Category string
}

// PageviewTotal is an ArticleRef plus its summed views over the query window.
// A title unknown to the pageviews service carries a total of zero.
type PageviewTotal struct {
	ArticleRef
	YearlyViews int64
}

// ArticleMeta holds the per-article metadata assembled from the action API.
// WikiProjects is sorted and deduplicated. The zero value is the documented
// default for articles whose metadata is unavailable at join time.
type ArticleMeta struct {
	PageID       int64
	Title        string
	ShortDesc    string
	SizeBytes    int64
	WordCount    int64
	Quality      Grade
	LastEdit     string
	WikiProjects []string
	RevID        int64
	RevURL       string
	WikidataID   string
	WikidataURL  string
}

// CombinedRecord is one row of the final ranked dataset.
type CombinedRecord struct {
	Rank        int
	PageID      int64
	Title       string
	Category    string
	YearlyViews int64
	ShortDesc   string
	WordCount   int64
	Quality     Grade
}

// Grade is an en-wiki content assessment class. The zero value means the
// article has not been assessed.
type Grade string

// Assessment classes, best first.
const (
	GradeFA    Grade = "FA"
	GradeFL    Grade = "FL"
	GradeA     Grade = "A"
	GradeGA    Grade = "GA"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeStart Grade = "Start"
	GradeStub  Grade = "Stub"
	GradeList  Grade = "List"
)

// gradeOrder ranks the closed set of grades, best first. Position doubles as
// the comparison key.
var gradeOrder = [...]Grade{
	GradeFA, GradeFL, GradeA, GradeGA, GradeB, GradeC, GradeStart, GradeStub, GradeList,
}

// Grades returns the assessment classes in precedence order, best first.
func Grades() []Grade {
	out := make([]Grade, len(gradeOrder))
	copy(out, gradeOrder[:])
	return out
}

// rank maps a grade to its precedence index; unknown and empty grades sort
// after every known one.
func (g Grade) rank() int {
	for i, known := range gradeOrder {
		if g == known {
			return i
		}
	}
	return len(gradeOrder)
}

// Known reports whether g is one of the assessment classes.
func (g Grade) Known() bool {
	return g.rank() < len(gradeOrder)
}

// Better reports whether g outranks other. An unassessed grade never wins.
func (g Grade) Better(other Grade) bool {
	return g.rank() < other.rank()
}

// BestGrade returns the highest-precedence grade in grades, or the empty
// grade when none is known.
func BestGrade(grades []Grade) Grade {
	best := Grade("")
	for _, g := range grades {
		if !g.Known() {
			continue
		}
		if best == "" || g.Better(best) {
			best = g
		}
	}
	return best
}
