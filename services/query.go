package services

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SortKey is a client-facing ordering name such as "priceDesc".
type SortKey string

const (
	SortNameAsc    SortKey = "nameAsc"
	SortNameDesc   SortKey = "nameDesc"
	SortAliasAsc   SortKey = "aliasAsc"
	SortAliasDesc  SortKey = "aliasDesc"
	SortPriceAsc   SortKey = "priceAsc"
	SortPriceDesc  SortKey = "priceDesc"
	SortDateAsc    SortKey = "dateAsc"
	SortDateDesc   SortKey = "dateDesc"
	SortAmountAsc  SortKey = "amountAsc"
	SortAmountDesc SortKey = "amountDesc"
	SortStarsAsc   SortKey = "starsAsc"
	SortStarsDesc  SortKey = "starsDesc"
	SortFuncAsc    SortKey = "funcAsc"
	SortFuncDesc   SortKey = "funcDesc"
	SortIDDesc     SortKey = "idDesc"
)

type sortSpec struct {
	column string
	desc   bool
}

// SortOrder is the closed set of keys one listing accepts. Unknown keys fall
// back to the listing default, so raw input never reaches ORDER BY.
type SortOrder struct {
	keys     map[SortKey]sortSpec
	fallback sortSpec
}

func (o SortOrder) apply(db *gorm.DB, key SortKey) *gorm.DB {
	spec, ok := o.keys[SortKey(strings.TrimSpace(string(key)))]
	if !ok {
		spec = o.fallback
	}
	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: spec.column}, Desc: spec.desc})
	if spec.column != "id" {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	return db
}

var (
	idAsc  = sortSpec{column: "id"}
	idDesc = sortSpec{column: "id", desc: true}

	VillainSorts = SortOrder{fallback: idAsc, keys: map[SortKey]sortSpec{
		SortNameAsc:   {column: "name"},
		SortNameDesc:  {column: "name", desc: true},
		SortAliasAsc:  {column: "alias"},
		SortAliasDesc: {column: "alias", desc: true},
	}}

	LairSorts = SortOrder{fallback: idAsc, keys: map[SortKey]sortSpec{
		SortNameAsc:   {column: "name"},
		SortNameDesc:  {column: "name", desc: true},
		SortPriceAsc:  {column: "nightly_price"},
		SortPriceDesc: {column: "nightly_price", desc: true},
	}}

	AmenitySorts = SortOrder{fallback: idAsc, keys: map[SortKey]sortSpec{
		SortNameAsc:  {column: "name"},
		SortNameDesc: {column: "name", desc: true},
		SortIDDesc:   idDesc,
	}}

	ReviewSorts = SortOrder{fallback: idDesc, keys: map[SortKey]sortSpec{
		SortStarsAsc:  {column: "score"},
		SortStarsDesc: {column: "score", desc: true},
		SortDateAsc:   {column: "published_on"},
		SortDateDesc:  {column: "published_on", desc: true},
	}}

	SecretRoomSorts = SortOrder{fallback: idAsc, keys: map[SortKey]sortSpec{
		SortFuncAsc:  {column: "main_function"},
		SortFuncDesc: {column: "main_function", desc: true},
	}}

	ReservationSorts = SortOrder{fallback: idDesc, keys: map[SortKey]sortSpec{
		SortDateAsc:  {column: "start_date"},
		SortDateDesc: {column: "start_date", desc: true},
	}}

	InvoiceSorts = SortOrder{fallback: idDesc, keys: map[SortKey]sortSpec{
		SortDateAsc:    {column: "issue_date"},
		SortDateDesc:   {column: "issue_date", desc: true},
		SortAmountAsc:  {column: "amount"},
		SortAmountDesc: {column: "amount", desc: true},
	}}
)

const (
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// PageRequest is 1-based.
type PageRequest struct {
	Page int
	Size int
}

func NewPageRequest(page, size int) PageRequest {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, Size: size}
}

type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// paginate counts query, clamps the page into range and loads one page with
// LIMIT/OFFSET. query must already carry Model and filters.
func paginate[T any](query *gorm.DB, order func(*gorm.DB) *gorm.DB, pr PageRequest) (Page[T], error) {
	pr = NewPageRequest(pr.Page, pr.Size)
	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	totalPages := int((total + int64(pr.Size) - 1) / int64(pr.Size))
	page := pr.Page
	if totalPages == 0 {
		page = 1
	} else if page > totalPages {
		page = totalPages
	}

	items := make([]T, 0, pr.Size)
	if total > 0 {
		if err := order(base).Offset((page - 1) * pr.Size).Limit(pr.Size).Find(&items).Error; err != nil {
			return Page[T]{}, err
		}
	}

	return Page[T]{Items: items, Page: page, Size: pr.Size, TotalItems: total, TotalPages: totalPages}, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsClause is a case-insensitive substring match on column; bind it
// with containsPattern.
func containsClause(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '!'"
}

// containsPattern escapes LIKE wildcards in s so they match literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
