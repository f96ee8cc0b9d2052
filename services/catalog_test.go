package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bnbillains/models"
	"bnbillains/repositories"
	"bnbillains/testutil"
)

type catalog struct {
	db           *gorm.DB
	villains     *VillainService
	lairs        *LairService
	amenities    *AmenityService
	reviews      *ReviewService
	rooms        *SecretRoomService
	invoices     *InvoiceService
	reservations *ReservationQueries
	engine       *ReservationService
	cache        *memCache
}

func newCatalog(t *testing.T) *catalog {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := quietLogger()
	c := &memCache{entries: map[uint][]string{}}

	rooms := NewSecretRoomService(db)
	rooms.cost = bcrypt.MinCost

	return &catalog{
		db:           db,
		villains:     NewVillainService(db, c, log),
		lairs:        NewLairService(db, c, log),
		amenities:    NewAmenityService(db),
		reviews:      NewReviewService(db),
		rooms:        rooms,
		invoices:     NewInvoiceService(db),
		reservations: NewReservationQueries(db),
		engine:       NewReservationService(repositories.NewBookingStore(db), ReservationOptions{Cache: c, Logger: log}),
		cache:        c,
	}
}

func (c *catalog) villain(t *testing.T, license, email string) *models.Villain {
	t.Helper()
	v, err := c.villains.Create(context.Background(), VillainInput{Name: "Dr. " + license, Alias: "Alias " + license, LicenseCode: license, Email: email})
	if err != nil {
		t.Fatalf("create villain: %v", err)
	}
	return v
}

func (c *catalog) lair(t *testing.T, name string, price int64, amenityIDs ...uint) *models.Lair {
	t.Helper()
	l, err := c.lairs.Create(context.Background(), LairInput{Name: name, Location: "Moon", NightlyPrice: decimal.NewFromInt(price), AmenityIDs: amenityIDs})
	if err != nil {
		t.Fatalf("create lair: %v", err)
	}
	return l
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestEngineOnGormStore(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	v := c.villain(t, "123A456789", "blofeld@spectre.example")
	l := c.lair(t, "Volcano", 100)

	r, err := c.engine.Book(ctx, BookingRequest{VillainID: v.ID, LairID: l.ID, StartDate: day("2025-01-01"), EndDate: day("2025-01-04")})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	_, err = c.engine.Book(ctx, BookingRequest{VillainID: v.ID, LairID: l.ID, StartDate: day("2025-01-04"), EndDate: day("2025-01-06")})
	wantKind(t, err, KindOverbooking)

	if _, err := c.engine.Reschedule(ctx, r.ID, BookingRequest{VillainID: v.ID, LairID: l.ID, StartDate: day("2025-01-02"), EndDate: day("2025-01-07")}); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	invs, err := c.invoices.ListByVillain(ctx, v.ID)
	if err != nil || len(invs) != 1 {
		t.Fatalf("ListByVillain = %v, %v", invs, err)
	}
	if !invs[0].Amount.Equal(decimal.NewFromInt(500)) || !invs[0].Tax.Equal(decimal.NewFromInt(105)) {
		t.Fatalf("invoice = %s / %s", invs[0].Amount, invs[0].Tax)
	}

	dates, err := c.engine.ListOccupiedDates(ctx, l.ID)
	if err != nil || len(dates) != 6 {
		t.Fatalf("occupied = %v, %v", dates, err)
	}

	if err := c.engine.Cancel(ctx, r.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if count(t, c.db, &models.Reservation{}) != 0 || count(t, c.db, &models.Invoice{}) != 0 {
		t.Fatalf("cancel left rows behind")
	}
}

func TestVillainValidationAndUniqueness(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	c.villain(t, "123A456789", "a@lair.example")

	_, err := c.villains.Create(ctx, VillainInput{Name: "X", Alias: "Y", LicenseCode: "12AB456789", Email: "x@lair.example"})
	wantKind(t, err, KindInvalidInput)

	_, err = c.villains.Create(ctx, VillainInput{Name: "X", Alias: "Y", LicenseCode: "123a456789", Email: "x@lair.example"})
	wantKind(t, err, KindDuplicate)

	_, err = c.villains.Create(ctx, VillainInput{Name: "X", Alias: "Y", LicenseCode: "999Z000000", Email: "A@lair.example"})
	wantKind(t, err, KindDuplicate)

	// limits count characters, not bytes
	wide := strings.Repeat("ñ", 255)
	if _, err := c.villains.Create(ctx, VillainInput{Name: wide, Alias: wide, LicenseCode: "555B000001", Email: "n@lair.example"}); err != nil {
		t.Fatalf("255 two-byte characters rejected: %v", err)
	}
	_, err = c.villains.Create(ctx, VillainInput{Name: wide + "ñ", Alias: "Y", LicenseCode: "555B000002", Email: "m@lair.example"})
	wantKind(t, err, KindInvalidInput)

	v := c.villain(t, "999Z000000", "z@lair.example")
	if _, err := c.villains.Update(ctx, v.ID, VillainInput{Name: "Zed", Alias: "Z", LicenseCode: "999Z000000", Email: "z@lair.example"}); err != nil {
		t.Fatalf("update keeping own license: %v", err)
	}
}

func TestVillainSearchAndSort(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	for _, in := range []VillainInput{
		{Name: "Auric", Alias: "Goldfinger", LicenseCode: "001A000001", Email: "auric@x.example"},
		{Name: "Ernst", Alias: "Number One", LicenseCode: "001A000002", Email: "ernst@x.example"},
		{Name: "Rosa", Alias: "Klebb", LicenseCode: "001A000003", Email: "rosa@x.example"},
	} {
		if _, err := c.villains.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := c.villains.List(ctx, VillainFilter{Query: "GOLD"}, NewPageRequest(1, 5))
	if err != nil || page.TotalItems != 1 || page.Items[0].Name != "Auric" {
		t.Fatalf("alias search = %+v, %v", page, err)
	}

	page, err = c.villains.List(ctx, VillainFilter{Sort: SortNameDesc}, NewPageRequest(1, 2))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalPages != 2 || len(page.Items) != 2 || page.Items[0].Name != "Rosa" {
		t.Fatalf("sorted page = %+v", page)
	}

	// past the end clamps to the last page
	page, _ = c.villains.List(ctx, VillainFilter{Sort: SortNameDesc}, NewPageRequest(9, 2))
	if page.Page != 2 || len(page.Items) != 1 || page.Items[0].Name != "Auric" {
		t.Fatalf("clamped page = %+v", page)
	}
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	for _, in := range []VillainInput{
		{Name: "Dr_No", Alias: "Julius", LicenseCode: "002A000001", Email: "no@x.example"},
		{Name: "Blofeld", Alias: "Number 1", LicenseCode: "002A000002", Email: "b@x.example"},
		{Name: "Zorin", Alias: "100% Max", LicenseCode: "002A000003", Email: "z@x.example"},
	} {
		if _, err := c.villains.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	cases := []struct {
		query string
		want  int64
	}{
		{"_", 1},
		{"%", 1},
		{"!", 0},
		{"r_n", 1},
		{"0%", 1},
		{"o", 3},
	}
	for _, tc := range cases {
		page, err := c.villains.List(ctx, VillainFilter{Query: tc.query}, NewPageRequest(1, 5))
		if err != nil {
			t.Fatalf("List(%q): %v", tc.query, err)
		}
		if page.TotalItems != tc.want {
			t.Fatalf("List(%q) matched %d, want %d", tc.query, page.TotalItems, tc.want)
		}
	}
}

func TestContainsPatternEscapes(t *testing.T) {
	cases := map[string]string{
		"  Gold ": "%gold%",
		"50%":     "%50!%%",
		"dr_no":   "%dr!_no%",
		"wow!":    "%wow!!%",
	}
	for in, want := range cases {
		if got := containsPattern(in); got != want {
			t.Fatalf("containsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLairFiltersAndValidation(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	c.lair(t, "Volcano Hideout", 900)
	c.lair(t, "Ice Fortress", 300)
	c.lair(t, "Moon Base", 1500)

	min, max := decimal.NewFromInt(200), decimal.NewFromInt(1000)
	page, err := c.lairs.List(ctx, LairFilter{MinPrice: &min, MaxPrice: &max, Sort: SortPriceAsc}, NewPageRequest(1, 10))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].Name != "Ice Fortress" || page.Items[1].Name != "Volcano Hideout" {
		t.Fatalf("price filter = %+v", page.Items)
	}

	page, _ = c.lairs.List(ctx, LairFilter{Name: "fort"}, NewPageRequest(1, 10))
	if len(page.Items) != 1 {
		t.Fatalf("name filter = %+v", page.Items)
	}

	_, err = c.lairs.Create(ctx, LairInput{Name: "Moon Base", Location: "Moon", NightlyPrice: decimal.NewFromInt(10)})
	wantKind(t, err, KindDuplicate)
	_, err = c.lairs.Create(ctx, LairInput{Name: "Cheap", Location: "Moon", NightlyPrice: decimal.RequireFromString("0.99")})
	wantKind(t, err, KindInvalidInput)
	_, err = c.lairs.Create(ctx, LairInput{Name: "Nowhere", NightlyPrice: decimal.NewFromInt(10)})
	wantKind(t, err, KindInvalidInput)
}

func TestLairAmenitiesAndSecretRoom(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	shark, _ := c.amenities.Create(ctx, AmenityInput{Name: "Shark tank"})
	laser, _ := c.amenities.Create(ctx, AmenityInput{Name: "Laser", SelfDestruct: true})
	room, err := c.rooms.Create(ctx, SecretRoomInput{AccessCode: "OPEN1234", MainFunction: "Vault"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	l, err := c.lairs.Create(ctx, LairInput{Name: "Volcano", Location: "Pacific", NightlyPrice: decimal.NewFromInt(100), SecretRoomID: &room.ID, AmenityIDs: []uint{shark.ID, laser.ID}})
	if err != nil {
		t.Fatalf("create lair: %v", err)
	}
	got, _ := c.lairs.Get(ctx, l.ID)
	if len(got.Amenities) != 2 || got.SecretRoomID == nil || *got.SecretRoomID != room.ID {
		t.Fatalf("lair links = %+v", got)
	}

	_, err = c.lairs.Create(ctx, LairInput{Name: "Copycat", Location: "Pacific", NightlyPrice: decimal.NewFromInt(100), SecretRoomID: &room.ID})
	wantKind(t, err, KindDuplicate)

	_, err = c.lairs.Update(ctx, l.ID, LairInput{Name: "Volcano", Location: "Pacific", NightlyPrice: decimal.NewFromInt(120), AmenityIDs: []uint{laser.ID}})
	if err != nil {
		t.Fatalf("update lair: %v", err)
	}
	got, _ = c.lairs.Get(ctx, l.ID)
	if len(got.Amenities) != 1 || got.Amenities[0].ID != laser.ID || got.SecretRoomID != nil {
		t.Fatalf("after update = %+v", got)
	}

	if err := c.amenities.Delete(ctx, laser.ID); err != nil {
		t.Fatalf("delete amenity: %v", err)
	}
	got, _ = c.lairs.Get(ctx, l.ID)
	if len(got.Amenities) != 0 {
		t.Fatalf("amenity link survived delete: %+v", got.Amenities)
	}
}

func TestAmenityNamesAreCaseInsensitive(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	if _, err := c.amenities.Create(ctx, AmenityInput{Name: "Shark Tank"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := c.amenities.Create(ctx, AmenityInput{Name: "shark tank"})
	wantKind(t, err, KindDuplicate)
}

func TestLairDeleteCascades(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	v := c.villain(t, "123A456789", "a@lair.example")
	room, _ := c.rooms.Create(ctx, SecretRoomInput{AccessCode: "X", MainFunction: "Panic room"})
	l, err := c.lairs.Create(ctx, LairInput{Name: "Doomed", Location: "Sea", NightlyPrice: decimal.NewFromInt(50), SecretRoomID: &room.ID})
	if err != nil {
		t.Fatalf("create lair: %v", err)
	}
	keep := c.lair(t, "Survivor", 50)

	if _, err := c.engine.Book(ctx, BookingRequest{VillainID: v.ID, LairID: l.ID, StartDate: day("2025-01-01"), EndDate: day("2025-01-02")}); err != nil {
		t.Fatalf("Book: %v", err)
	}
	kept, err := c.engine.Book(ctx, BookingRequest{VillainID: v.ID, LairID: keep.ID, StartDate: day("2025-01-01"), EndDate: day("2025-01-02")})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := c.reviews.Create(ctx, ReviewInput{Score: 5, Comment: "Lovely lava", VillainID: v.ID, LairID: l.ID}); err != nil {
		t.Fatalf("review: %v", err)
	}

	if err := c.lairs.Delete(ctx, l.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if count(t, c.db, &models.Reservation{}) != 1 || count(t, c.db, &models.Invoice{}) != 1 {
		t.Fatalf("cascade removed too much or too little")
	}
	if count(t, c.db, &models.Review{}) != 0 || count(t, c.db, &models.SecretRoom{}) != 0 {
		t.Fatalf("reviews or secret room left behind")
	}
	if _, err := c.reservations.Get(ctx, kept.ID); err != nil {
		t.Fatalf("other lair's reservation lost: %v", err)
	}
	wantKind(t, c.lairs.Delete(ctx, l.ID), KindNotFound)
}

func TestVillainDeleteCascades(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	v := c.villain(t, "123A456789", "a@lair.example")
	other := c.villain(t, "123A456788", "b@lair.example")
	l := c.lair(t, "Volcano", 100)

	if _, err := c.engine.Book(ctx, BookingRequest{VillainID: v.ID, LairID: l.ID, StartDate: day("2025-01-01"), EndDate: day("2025-01-02")}); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := c.engine.Book(ctx, BookingRequest{VillainID: other.ID, LairID: l.ID, StartDate: day("2025-02-01"), EndDate: day("2025-02-02")}); err != nil {
		t.Fatalf("Book: %v", err)
	}
	_, _ = c.reviews.Create(ctx, ReviewInput{Score: 2, VillainID: v.ID, LairID: l.ID})

	c.cache.entries[l.ID] = []string{"stale"}
	if err := c.villains.Delete(ctx, v.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if count(t, c.db, &models.Reservation{}) != 1 || count(t, c.db, &models.Invoice{}) != 1 || count(t, c.db, &models.Review{}) != 0 {
		t.Fatalf("villain cascade incomplete")
	}
	if _, ok := c.cache.entries[l.ID]; ok {
		t.Fatalf("calendar of affected lair not invalidated")
	}
}

func TestReviewRules(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	v := c.villain(t, "123A456789", "a@lair.example")
	l := c.lair(t, "Volcano", 100)

	_, err := c.reviews.Create(ctx, ReviewInput{Score: 6, VillainID: v.ID, LairID: l.ID})
	wantKind(t, err, KindInvalidInput)
	_, err = c.reviews.Create(ctx, ReviewInput{Score: 3, VillainID: v.ID, LairID: 404})
	wantKind(t, err, KindNotFound)

	for score := 1; score <= 5; score++ {
		if _, err := c.reviews.Create(ctx, ReviewInput{Score: score, Comment: "ok", VillainID: v.ID, LairID: l.ID}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	page, err := c.reviews.List(ctx, ReviewFilter{Sort: SortStarsDesc}, NewPageRequest(1, 5))
	if err != nil || page.Items[0].Score != 5 || page.Items[4].Score != 1 {
		t.Fatalf("stars sort = %+v, %v", page.Items, err)
	}
	page, _ = c.reviews.List(ctx, ReviewFilter{Score: 3}, NewPageRequest(1, 5))
	if page.TotalItems != 1 {
		t.Fatalf("score filter = %+v", page)
	}
}

func TestReviewWriteForeignKeyFailureIsNotFound(t *testing.T) {
	in := ReviewInput{Score: 4, VillainID: 7, LairID: 9}

	wantKind(t, reviewWriteError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, in), KindNotFound)
	wantKind(t, reviewWriteError(errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), in), KindNotFound)

	other := errors.New("connection reset")
	if got := reviewWriteError(other, in); got != other {
		t.Fatalf("unrelated errors must pass through, got %v", got)
	}
	if reviewWriteError(nil, in) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestSecretRoomCodeIsHashed(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	_, err := c.rooms.Create(ctx, SecretRoomInput{AccessCode: "TOOLONG99", MainFunction: "Vault"})
	wantKind(t, err, KindInvalidInput)

	room, err := c.rooms.Create(ctx, SecretRoomInput{AccessCode: "SESAME", MainFunction: "Vault"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if room.AccessCodeHash == "SESAME" || room.AccessCodeHash == "" {
		t.Fatalf("code stored in clear")
	}

	ok, err := c.rooms.Verify(ctx, room.ID, "SESAME")
	if err != nil || !ok {
		t.Fatalf("Verify(right) = %v, %v", ok, err)
	}
	ok, _ = c.rooms.Verify(ctx, room.ID, "WRONG")
	if ok {
		t.Fatalf("wrong code accepted")
	}

	// empty code on update keeps the old one
	if _, err := c.rooms.Update(ctx, room.ID, SecretRoomInput{MainFunction: "Armory", EmergencyExit: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if ok, _ := c.rooms.Verify(ctx, room.ID, "SESAME"); !ok {
		t.Fatalf("code lost on update")
	}
}

func TestSecretRoomDeleteDetachesLair(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	room, _ := c.rooms.Create(ctx, SecretRoomInput{AccessCode: "A", MainFunction: "Vault"})
	l, err := c.lairs.Create(ctx, LairInput{Name: "Volcano", Location: "Sea", NightlyPrice: decimal.NewFromInt(10), SecretRoomID: &room.ID})
	if err != nil {
		t.Fatalf("create lair: %v", err)
	}

	if err := c.rooms.Delete(ctx, room.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := c.lairs.Get(ctx, l.ID)
	if err != nil || got.SecretRoomID != nil {
		t.Fatalf("lair still points at deleted room: %+v, %v", got, err)
	}
}

func TestInvoiceManualLifecycle(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	v := c.villain(t, "123A456789", "a@lair.example")
	l := c.lair(t, "Volcano", 80)

	r, err := c.engine.Book(ctx, BookingRequest{VillainID: v.ID, LairID: l.ID, StartDate: day("2025-01-01"), EndDate: day("2025-01-03")})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	_, err = c.invoices.Create(ctx, r.ID)
	wantKind(t, err, KindDuplicate)

	invs, _ := c.invoices.ListByVillain(ctx, v.ID)
	updated, err := c.invoices.Update(ctx, invs[0].ID, InvoiceUpdate{PaymentMethod: "Gold bullion"})
	if err != nil || updated.PaymentMethod != "Gold bullion" {
		t.Fatalf("Update = %+v, %v", updated, err)
	}

	page, _ := c.invoices.List(ctx, InvoiceFilter{PaymentMethod: "BULLION"}, NewPageRequest(1, 5))
	if page.TotalItems != 1 {
		t.Fatalf("payment method filter = %+v", page)
	}

	if err := c.invoices.Delete(ctx, invs[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	inv, err := c.invoices.Create(ctx, r.ID)
	if err != nil {
		t.Fatalf("re-create: %v", err)
	}
	if !inv.Amount.Equal(decimal.NewFromInt(160)) || inv.PaymentMethod != models.PaymentPending {
		t.Fatalf("re-created invoice = %+v", inv)
	}
	_, err = c.invoices.Create(ctx, 999)
	wantKind(t, err, KindNotFound)
}

func TestReservationQueriesFilterAndSort(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()
	v := c.villain(t, "123A456789", "a@lair.example")
	l := c.lair(t, "Volcano", 80)

	for _, r := range []struct {
		start, end string
		confirmed  bool
	}{
		{"2025-03-01", "2025-03-02", true},
		{"2025-01-01", "2025-01-02", false},
		{"2025-02-01", "2025-02-02", true},
	} {
		if _, err := c.engine.Book(ctx, BookingRequest{VillainID: v.ID, LairID: l.ID, StartDate: day(r.start), EndDate: day(r.end), Confirmed: r.confirmed}); err != nil {
			t.Fatalf("Book: %v", err)
		}
	}

	page, err := c.reservations.List(ctx, ReservationFilter{Sort: SortDateAsc}, NewPageRequest(1, 5))
	if err != nil || len(page.Items) != 3 || page.Items[0].Start().Month() != 1 {
		t.Fatalf("dateAsc = %+v, %v", page.Items, err)
	}

	confirmed := true
	page, _ = c.reservations.List(ctx, ReservationFilter{Confirmed: &confirmed, VillainID: v.ID}, NewPageRequest(1, 5))
	if page.TotalItems != 2 {
		t.Fatalf("confirmed filter = %+v", page)
	}
}
