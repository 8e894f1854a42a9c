package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
	"github.com/ekaya-inc/sqlite-mcp/pkg/models"
	sqlutil "github.com/ekaya-inc/sqlite-mcp/pkg/sql"
)

// QueryTranslator turns a free-text request into a single SELECT statement
// using a closed set of patterns. Only identifiers found in the snapshot are
// ever emitted.
type QueryTranslator interface {
	// Translate resolves the table from the request text.
	Translate(userText string, snapshot models.SchemaSnapshot) (*models.TranslatedQuery, error)

	// TranslateForTable uses tableName instead of resolving the table from
	// the text. A schema qualifier such as "main." is ignored.
	TranslateForTable(userText, tableName string, snapshot models.SchemaSnapshot) (*models.TranslatedQuery, error)
}

// minPrefixMatch is the shortest word that may match a longer name by prefix.
const minPrefixMatch = 4

var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		a about all an and any are be by can column columns data details display
		do does each every everything fetch field fields find for from get give
		has have how i in info information is it like list many me much need
		of on or per please record records result results return row rows see
		select show table tables that the their there to value values want was
		what where which who with would you`) {
		stopwords[w] = true
	}
}

var (
	descWords = map[string]bool{"desc": true, "descending": true, "highest": true, "largest": true,
		"biggest": true, "most": true, "latest": true, "newest": true, "recent": true}
	ascWords = map[string]bool{"asc": true, "ascending": true, "lowest": true, "smallest": true,
		"least": true, "oldest": true, "earliest": true}
	dateWords = map[string]bool{"latest": true, "newest": true, "recent": true, "oldest": true, "earliest": true}

	rowNouns = map[string]bool{"rows": true, "records": true, "results": true, "entries": true}

	// dateColumnCandidates are tried in order when a request asks for the
	// newest or oldest rows without naming a column.
	dateColumnCandidates = []string{"date", "created_at", "updated_at", "timestamp", "time", "datetime", "start_date", "end_date"}

	numberPattern = regexp.MustCompile(`^[0-9]+$`)
)

type queryTranslator struct {
	maxRows int
	logger  *zap.Logger
}

// NewQueryTranslator creates a translator. Requested LIMIT values are capped
// at maxRows.
func NewQueryTranslator(maxRows int, logger *zap.Logger) QueryTranslator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &queryTranslator{maxRows: maxRows, logger: logger.Named("translator")}
}

var _ QueryTranslator = (*queryTranslator)(nil)

// term is a candidate identifier taken from the request: a single word, or
// two adjacent words joined with an underscore.
type term struct {
	value  string
	pos    int
	bigram bool
}

func (t term) positions() []int {
	if t.bigram {
		return []int{t.pos, t.pos + 1}
	}
	return []int{t.pos}
}

// requestIntents records the patterns recognized in a request and the word
// positions they used up.
type requestIntents struct {
	count       bool
	distinct    bool
	all         bool
	orderMarker int
	direction   string
	byDate      bool
	limit       int
	consumed    map[int]bool
}

type resolvedColumn struct {
	name string
	pos  int
}

func (q *queryTranslator) Translate(userText string, snapshot models.SchemaSnapshot) (*models.TranslatedQuery, error) {
	words := normalizeRequest(userText)
	intents := detectIntents(words, q.maxRows)
	terms := buildTerms(words, intents.consumed)

	table, tableTerms, err := resolveTable(terms, snapshot, userText)
	if err != nil {
		return nil, err
	}
	return q.build(words, terms, tableTerms, intents, table)
}

func (q *queryTranslator) TranslateForTable(userText, tableName string, snapshot models.SchemaSnapshot) (*models.TranslatedQuery, error) {
	name := sqlutil.NormalizeTableRef(tableName)
	table, ok := snapshot.Lookup(name)
	if !ok {
		return nil, apperrors.New(apperrors.KindSchema, apperrors.CodeTableNotFound, "table %q does not exist", name)
	}

	words := normalizeRequest(userText)
	intents := detectIntents(words, q.maxRows)
	terms := buildTerms(words, intents.consumed)

	tableTerms := make(map[int]bool)
	for _, t := range terms {
		if nameMatches(t.value, table.Name) {
			for _, p := range t.positions() {
				tableTerms[p] = true
			}
		}
	}
	return q.build(words, terms, tableTerms, intents, table)
}

func (q *queryTranslator) build(words []string, terms []term, tableTerms map[int]bool, intents *requestIntents, table *models.TableDescriptor) (*models.TranslatedQuery, error) {
	columns, err := resolveColumns(terms, tableTerms, table)
	if err != nil {
		return nil, err
	}

	orderBy := ""
	if !intents.count && (intents.orderMarker >= 0 || intents.direction != "") {
		orderBy = pickOrderColumn(columns, intents, table)
	}

	var projection []string
	seen := make(map[string]bool)
	for _, c := range columns {
		if c.name == orderBy || seen[c.name] {
			continue
		}
		seen[c.name] = true
		projection = append(projection, c.name)
	}
	if intents.all {
		projection = nil
	}

	result := &models.TranslatedQuery{ReferencedTable: table.Name}
	var sb strings.Builder
	sb.WriteString("SELECT ")

	switch {
	case intents.count && intents.distinct && len(projection) > 0:
		sb.WriteString("COUNT(DISTINCT " + sqlutil.FormatIdentifier(projection[0]) + ")")
		result.ReferencedColumns = []string{projection[0]}
		result.Intents = []models.Intent{models.IntentCount, models.IntentDistinct}
	case intents.count:
		sb.WriteString("COUNT(*)")
		result.Intents = []models.Intent{models.IntentCount}
	default:
		result.Intents = []models.Intent{models.IntentSelect}
		if intents.distinct && len(projection) > 0 {
			sb.WriteString("DISTINCT ")
			result.Intents = append(result.Intents, models.IntentDistinct)
		}
		if len(projection) == 0 {
			sb.WriteString("*")
		} else {
			formatted := make([]string, len(projection))
			for i, c := range projection {
				formatted[i] = sqlutil.FormatIdentifier(c)
			}
			sb.WriteString(strings.Join(formatted, ", "))
			result.ReferencedColumns = append(result.ReferencedColumns, projection...)
		}
	}

	sb.WriteString(" FROM " + sqlutil.FormatIdentifier(table.Name))

	if !intents.count {
		if orderBy != "" {
			sb.WriteString(" ORDER BY " + sqlutil.FormatIdentifier(orderBy))
			if intents.direction == "DESC" {
				sb.WriteString(" DESC")
			}
			result.ReferencedColumns = append(result.ReferencedColumns, orderBy)
			result.Intents = append(result.Intents, models.IntentOrder)
		}
		if intents.limit > 0 {
			sb.WriteString(" LIMIT " + strconv.Itoa(intents.limit))
			result.Limit = intents.limit
			result.Intents = append(result.Intents, models.IntentLimit)
		}
	}

	result.SQL = sb.String()
	q.logger.Debug("Translated request",
		zap.Strings("words", words),
		zap.String("table", table.Name),
		zap.String("sql", result.SQL),
	)
	return result, nil
}

// normalizeRequest case-folds text and splits it into words on anything that
// is not a letter, digit or underscore.
func normalizeRequest(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func detectIntents(words []string, maxRows int) *requestIntents {
	in := &requestIntents{orderMarker: -1, consumed: make(map[int]bool)}
	at := func(i int) string {
		if i >= 0 && i < len(words) {
			return words[i]
		}
		return ""
	}
	use := func(positions ...int) {
		for _, p := range positions {
			in.consumed[p] = true
		}
	}

	for i, w := range words {
		next := at(i + 1)
		switch {
		case w == "count":
			in.count = true
			use(i)
		case w == "how" && next == "many":
			in.count = true
			use(i, i+1)
		case w == "number" && next == "of":
			in.count = true
			use(i, i+1)
		case w == "total" && next == "number":
			in.count = true
			use(i, i+1)
		case w == "distinct" || w == "unique":
			in.distinct = true
			use(i)
		case (w == "order" || w == "ordered" || w == "sort" || w == "sorted") && next == "by":
			in.orderMarker = i + 1
			use(i, i+1)
		case w == "by":
			in.orderMarker = i
			use(i)
		case descWords[w]:
			in.direction = "DESC"
			in.byDate = dateWords[w]
			use(i)
		case ascWords[w]:
			in.direction = "ASC"
			in.byDate = dateWords[w]
			use(i)
		case (w == "limit" || w == "top" || w == "first") && numberPattern.MatchString(next):
			in.limit = parseLimit(next, maxRows)
			use(i, i+1)
		case numberPattern.MatchString(w) && rowNouns[next]:
			in.limit = parseLimit(w, maxRows)
			use(i, i+1)
		case w == "all" || w == "everything":
			in.all = true
			use(i)
		}
	}
	return in
}

func parseLimit(s string, maxRows int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	if n > maxRows {
		return maxRows
	}
	return n
}

// buildTerms returns the words not used by an intent, followed by adjacent
// pairs of them joined with an underscore.
func buildTerms(words []string, consumed map[int]bool) []term {
	var terms []term
	for i, w := range words {
		if !consumed[i] {
			terms = append(terms, term{value: w, pos: i})
		}
	}
	for i := 0; i+1 < len(words); i++ {
		if !consumed[i] && !consumed[i+1] {
			terms = append(terms, term{value: words[i] + "_" + words[i+1], pos: i, bigram: true})
		}
	}
	return terms
}

// resolveTable finds the single table the request refers to. Words that
// name a table exactly take precedence over fuzzy matches.
func resolveTable(terms []term, snapshot models.SchemaSnapshot, userText string) (*models.TableDescriptor, map[int]bool, error) {
	names := snapshot.TableNames()
	sort.Strings(names)

	var considered []term
	for _, t := range terms {
		for _, name := range names {
			if strings.EqualFold(name, t.value) {
				considered = append(considered, t)
				break
			}
		}
	}
	if len(considered) == 0 {
		for _, t := range terms {
			if !t.bigram && !stopwords[t.value] && !numberPattern.MatchString(t.value) {
				considered = append(considered, t)
			}
		}
	}

	family := make(map[string]bool)
	used := make(map[int]bool)
	var matchedTerms []string
	for _, t := range considered {
		matched := false
		for _, name := range names {
			if nameMatches(t.value, name) {
				family[name] = true
				matched = true
			}
		}
		if matched {
			matchedTerms = append(matchedTerms, t.value)
			for _, p := range t.positions() {
				used[p] = true
			}
		}
	}

	candidates := make([]string, 0, len(family))
	for name := range family {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)

	switch len(candidates) {
	case 0:
		return nil, nil, apperrors.New(apperrors.KindTranslation, apperrors.CodeNoMatch,
			"no table matches the request %q", userText)
	case 1:
		return snapshot[candidates[0]], used, nil
	default:
		return nil, nil, apperrors.Ambiguous("table reference", strings.Join(matchedTerms, " "), candidates)
	}
}

// resolveColumns matches the remaining terms against the table's columns.
// Pairs of words are only accepted as exact column names; single words may
// also match by singular form, by one part of an underscored name, or by
// prefix. A word matching several columns fuzzily is ambiguous.
func resolveColumns(terms []term, tableTerms map[int]bool, table *models.TableDescriptor) ([]resolvedColumn, error) {
	names := table.ColumnNames()
	taken := make(map[int]bool, len(tableTerms))
	for p := range tableTerms {
		taken[p] = true
	}

	var resolved []resolvedColumn
	for _, t := range terms {
		if !t.bigram || taken[t.pos] || taken[t.pos+1] {
			continue
		}
		if c, ok := table.Column(t.value); ok {
			resolved = append(resolved, resolvedColumn{name: c.Name, pos: t.pos})
			taken[t.pos], taken[t.pos+1] = true, true
		}
	}

	for _, t := range terms {
		if t.bigram || taken[t.pos] || numberPattern.MatchString(t.value) {
			continue
		}
		if c, ok := table.Column(t.value); ok {
			resolved = append(resolved, resolvedColumn{name: c.Name, pos: t.pos})
			continue
		}
		if stopwords[t.value] {
			continue
		}

		var matches []string
		for _, name := range names {
			if nameMatches(t.value, name) {
				matches = append(matches, name)
			}
		}
		switch len(matches) {
		case 0:
		case 1:
			resolved = append(resolved, resolvedColumn{name: matches[0], pos: t.pos})
		default:
			sort.Strings(matches)
			return nil, apperrors.Ambiguous("column reference", t.value, matches)
		}
	}

	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].pos < resolved[j].pos })
	return resolved, nil
}

func pickOrderColumn(columns []resolvedColumn, intents *requestIntents, table *models.TableDescriptor) string {
	if intents.orderMarker >= 0 {
		for _, c := range columns {
			if c.pos > intents.orderMarker {
				return c.name
			}
		}
	} else if !intents.byDate && len(columns) == 1 {
		return columns[0].name
	}
	if intents.byDate {
		return findDateColumn(table)
	}
	return ""
}

// findDateColumn picks the column a "latest" or "oldest" request sorts by:
// a well-known date column name first, then any column declared as a date
// or time.
func findDateColumn(table *models.TableDescriptor) string {
	for _, candidate := range dateColumnCandidates {
		if c, ok := table.Column(candidate); ok {
			return c.Name
		}
	}
	for _, c := range table.Columns {
		declared := strings.ToUpper(c.DeclaredType)
		if strings.Contains(declared, "DATE") || strings.Contains(declared, "TIME") {
			return c.Name
		}
	}
	return ""
}

// nameMatches reports whether a request word refers to a table or column
// name, ignoring case and plural forms.
func nameMatches(word, name string) bool {
	name = strings.ToLower(name)
	if name == word {
		return true
	}
	singular := inflection.Singular(word)
	if inflection.Singular(name) == singular {
		return true
	}
	if parts := strings.Split(name, "_"); len(parts) > 1 {
		for _, p := range parts {
			if p != "" && inflection.Singular(p) == singular {
				return true
			}
		}
	}
	return len(word) >= minPrefixMatch && strings.HasPrefix(name, word)
}
