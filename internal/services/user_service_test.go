package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/aromelle/api/internal/domain"
)

type userFixture struct {
	svc       UserService
	users     *stubUserRepository
	addresses *stubAddressRepository
	favorites *stubFavoriteRepository
	products  *stubProductRepository
	now       time.Time
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	users := newStubUserRepository()
	addresses := newStubAddressRepository()
	favorites := newStubFavoriteRepository()
	products := newStubProductRepository(
		domain.Product{ID: "prod_1", Name: "Nuit de Siam", Published: true},
	)

	svc, err := NewUserService(UserServiceDeps{
		Users:       users,
		Addresses:   addresses,
		Favorites:   favorites,
		Products:    products,
		Clock:       fixedClock(now),
		IDGenerator: sequenceIDs("u"),
	})
	if err != nil {
		t.Fatalf("new user service: %v", err)
	}
	return &userFixture{svc: svc, users: users, addresses: addresses, favorites: favorites, products: products, now: now}
}

func validAddressCommand(userID string) UpsertAddressCommand {
	return UpsertAddressCommand{
		UserID:     userID,
		Recipient:  "Pim S.",
		Phone:      "+66 81 234 5678",
		Line1:      "99 Sukhumvit 31",
		District:   "Watthana",
		Province:   "Bangkok",
		PostalCode: "10110",
	}
}

func TestUserEnsureProfileCreatesWithUserRole(t *testing.T) {
	fx := newUserFixture(t)

	profile, err := fx.svc.EnsureProfile(context.Background(), EnsureProfileCommand{
		UserID:      "user_1",
		Email:       "pim@example.com",
		DisplayName: "Pim",
		Locale:      "th_TH",
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if profile.Role != domain.RoleUser {
		t.Fatalf("expected USER role, got %s", profile.Role)
	}
	if profile.Locale != "th-TH" {
		t.Fatalf("expected canonical locale th-TH, got %q", profile.Locale)
	}
	if !profile.CreatedAt.Equal(fx.now) {
		t.Fatalf("expected creation timestamp, got %v", profile.CreatedAt)
	}
}

func TestUserEnsureProfileRefreshKeepsRoleAndLocale(t *testing.T) {
	fx := newUserFixture(t)
	fx.users.profiles["user_1"] = domain.UserProfile{
		ID:          "user_1",
		Email:       "old@example.com",
		DisplayName: "Old Name",
		Role:        domain.RoleAdmin,
		Locale:      "th-TH",
		CreatedAt:   fx.now.Add(-24 * time.Hour),
	}

	profile, err := fx.svc.EnsureProfile(context.Background(), EnsureProfileCommand{
		UserID: "user_1",
		Email:  "new@example.com",
		Locale: "en-US",
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if profile.Role != domain.RoleAdmin {
		t.Fatalf("sync must not demote admins, got %s", profile.Role)
	}
	if profile.Locale != "th-TH" {
		t.Fatalf("sync must not overwrite locale, got %q", profile.Locale)
	}
	if profile.Email != "new@example.com" {
		t.Fatalf("expected refreshed email, got %q", profile.Email)
	}
	// Empty identity fields never blank out stored values.
	if profile.DisplayName != "Old Name" {
		t.Fatalf("expected display name preserved, got %q", profile.DisplayName)
	}
}

func TestUserEnsureProfileToleratesBadLocaleOnFirstSync(t *testing.T) {
	fx := newUserFixture(t)

	profile, err := fx.svc.EnsureProfile(context.Background(), EnsureProfileCommand{
		UserID: "user_1",
		Locale: "not a locale!!",
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if profile.Locale != "" {
		t.Fatalf("expected empty locale, got %q", profile.Locale)
	}
}

func TestUserUpdateProfileValidates(t *testing.T) {
	fx := newUserFixture(t)
	fx.users.profiles["user_1"] = domain.UserProfile{ID: "user_1", Role: domain.RoleUser}

	name := "Pimchanok"
	locale := "en_GB"
	profile, err := fx.svc.UpdateProfile(context.Background(), UpdateProfileCommand{
		UserID:      "user_1",
		DisplayName: &name,
		Locale:      &locale,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.DisplayName != "Pimchanok" || profile.Locale != "en-GB" {
		t.Fatalf("unexpected profile %+v", profile)
	}

	empty := ""
	if _, err := fx.svc.UpdateProfile(context.Background(), UpdateProfileCommand{UserID: "user_1", DisplayName: &empty}); !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("expected invalid input for empty name, got %v", err)
	}
	long := strings.Repeat("x", 101)
	if _, err := fx.svc.UpdateProfile(context.Background(), UpdateProfileCommand{UserID: "user_1", DisplayName: &long}); !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("expected invalid input for long name, got %v", err)
	}
	bad := "zz_!!"
	if _, err := fx.svc.UpdateProfile(context.Background(), UpdateProfileCommand{UserID: "user_1", Locale: &bad}); !errors.Is(err, ErrUserInvalidLocale) {
		t.Fatalf("expected invalid locale, got %v", err)
	}
}

func TestUserSetRoleRejectsUnknownRole(t *testing.T) {
	fx := newUserFixture(t)
	fx.users.profiles["user_1"] = domain.UserProfile{ID: "user_1", Role: domain.RoleUser}

	promoted, err := fx.svc.SetRole(context.Background(), SetRoleCommand{UserID: "user_1", Role: domain.RoleAdmin, ActorID: "admin_1"})
	if err != nil {
		t.Fatalf("set role: %v", err)
	}
	if promoted.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", promoted.Role)
	}

	if _, err := fx.svc.SetRole(context.Background(), SetRoleCommand{UserID: "user_1", Role: domain.Role("OWNER")}); !errors.Is(err, ErrUserInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
}

func TestUserFirstAddressBecomesDefault(t *testing.T) {
	fx := newUserFixture(t)

	first, err := fx.svc.CreateAddress(context.Background(), validAddressCommand("user_1"))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if !first.IsDefault {
		t.Fatalf("first address must become default")
	}
	if !strings.HasPrefix(first.ID, "addr_") {
		t.Fatalf("unexpected id %s", first.ID)
	}

	second, err := fx.svc.CreateAddress(context.Background(), validAddressCommand("user_1"))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.IsDefault {
		t.Fatalf("second address must not steal the default")
	}
}

func TestUserCreateAddressWithDefaultFlagMovesDefault(t *testing.T) {
	fx := newUserFixture(t)

	first, err := fx.svc.CreateAddress(context.Background(), validAddressCommand("user_1"))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}

	cmd := validAddressCommand("user_1")
	cmd.IsDefault = true
	second, err := fx.svc.CreateAddress(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if !second.IsDefault {
		t.Fatalf("flagged address must become default")
	}

	stored, err := fx.addresses.Get(context.Background(), "user_1", first.ID)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if stored.IsDefault {
		t.Fatalf("only one address may be default")
	}
}

func TestUserCreateAddressValidates(t *testing.T) {
	fx := newUserFixture(t)

	cases := []struct {
		name   string
		mutate func(*UpsertAddressCommand)
	}{
		{"missing recipient", func(c *UpsertAddressCommand) { c.Recipient = "" }},
		{"short phone", func(c *UpsertAddressCommand) { c.Phone = "12" }},
		{"phone with letters", func(c *UpsertAddressCommand) { c.Phone = "081-CALL-ME" }},
		{"missing line", func(c *UpsertAddressCommand) { c.Line1 = "" }},
		{"missing postal code", func(c *UpsertAddressCommand) { c.PostalCode = "" }},
	}
	for _, tc := range cases {
		cmd := validAddressCommand("user_1")
		tc.mutate(&cmd)
		if _, err := fx.svc.CreateAddress(context.Background(), cmd); !errors.Is(err, ErrUserInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", tc.name, err)
		}
	}
}

func TestUserUpdateAddressPreservesIdentity(t *testing.T) {
	fx := newUserFixture(t)

	created, err := fx.svc.CreateAddress(context.Background(), validAddressCommand("user_1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cmd := validAddressCommand("user_1")
	cmd.AddressID = &created.ID
	cmd.Line1 = "7 Thonglor 13"
	updated, err := fx.svc.UpdateAddress(context.Background(), cmd)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID || updated.Line1 != "7 Thonglor 13" {
		t.Fatalf("unexpected address %+v", updated)
	}
	if !updated.IsDefault {
		t.Fatalf("update must not drop the default flag")
	}

	missing := "addr_missing"
	cmd.AddressID = &missing
	if _, err := fx.svc.UpdateAddress(context.Background(), cmd); !errors.Is(err, ErrUserAddressNotFound) {
		t.Fatalf("expected address not found, got %v", err)
	}
}

func TestUserDeleteDefaultAddressPromotesNewest(t *testing.T) {
	// Each call sees a later instant so update recency is observable.
	current := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
	addresses := newStubAddressRepository()
	svc, err := NewUserService(UserServiceDeps{
		Users:       newStubUserRepository(),
		Addresses:   addresses,
		Favorites:   newStubFavoriteRepository(),
		Products:    newStubProductRepository(),
		Clock:       clock,
		IDGenerator: sequenceIDs("u"),
	})
	if err != nil {
		t.Fatalf("new user service: %v", err)
	}

	first, err := svc.CreateAddress(context.Background(), validAddressCommand("user_1"))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.CreateAddress(context.Background(), validAddressCommand("user_1"))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := svc.CreateAddress(context.Background(), validAddressCommand("user_1")); err != nil {
		t.Fatalf("create third: %v", err)
	}

	// Touch the second address so it is the most recently updated.
	cmd := validAddressCommand("user_1")
	cmd.AddressID = &second.ID
	cmd.Line2 = "Floor 4"
	if _, err := svc.UpdateAddress(context.Background(), cmd); err != nil {
		t.Fatalf("touch second: %v", err)
	}

	if err := svc.DeleteAddress(context.Background(), DeleteAddressCommand{UserID: "user_1", AddressID: first.ID}); err != nil {
		t.Fatalf("delete default: %v", err)
	}

	remaining, err := svc.ListAddresses(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defaults := 0
	for _, addr := range remaining {
		if addr.IsDefault {
			defaults++
			if addr.ID != second.ID {
				t.Fatalf("expected %s promoted, got %s", second.ID, addr.ID)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default, got %d", defaults)
	}
}

func TestUserSetDefaultAddress(t *testing.T) {
	fx := newUserFixture(t)

	first, err := fx.svc.CreateAddress(context.Background(), validAddressCommand("user_1"))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := fx.svc.CreateAddress(context.Background(), validAddressCommand("user_1"))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	promoted, err := fx.svc.SetDefaultAddress(context.Background(), SetDefaultAddressCommand{UserID: "user_1", AddressID: second.ID})
	if err != nil {
		t.Fatalf("set default: %v", err)
	}
	if !promoted.IsDefault {
		t.Fatalf("expected default flag set")
	}
	stored, _ := fx.addresses.Get(context.Background(), "user_1", first.ID)
	if stored.IsDefault {
		t.Fatalf("previous default not cleared")
	}

	if _, err := fx.svc.SetDefaultAddress(context.Background(), SetDefaultAddressCommand{UserID: "user_1", AddressID: "addr_missing"}); !errors.Is(err, ErrUserAddressNotFound) {
		t.Fatalf("expected address not found, got %v", err)
	}
}

func TestUserToggleFavoriteFlipsState(t *testing.T) {
	fx := newUserFixture(t)

	on, err := fx.svc.ToggleFavorite(context.Background(), ToggleFavoriteCommand{UserID: "user_1", ProductID: "prod_1"})
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !on {
		t.Fatalf("expected favorite added")
	}

	off, err := fx.svc.ToggleFavorite(context.Background(), ToggleFavoriteCommand{UserID: "user_1", ProductID: "prod_1"})
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if off {
		t.Fatalf("expected favorite removed")
	}

	if _, err := fx.svc.ToggleFavorite(context.Background(), ToggleFavoriteCommand{UserID: "user_1", ProductID: "prod_missing"}); !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("expected invalid input for unknown product, got %v", err)
	}
}

func TestUserListFavoritesSkipsDelistedProducts(t *testing.T) {
	fx := newUserFixture(t)
	fx.products.products["prod_2"] = domain.Product{ID: "prod_2", Name: "Siam Vetiver", Published: true}

	for _, productID := range []string{"prod_1", "prod_2"} {
		if _, err := fx.svc.ToggleFavorite(context.Background(), ToggleFavoriteCommand{UserID: "user_1", ProductID: productID}); err != nil {
			t.Fatalf("toggle %s: %v", productID, err)
		}
	}
	delete(fx.products.products, "prod_2")

	page, err := fx.svc.ListFavorites(context.Background(), "user_1", domain.Pagination{PageSize: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Product.ID != "prod_1" {
		t.Fatalf("expected surviving favorite only, got %+v", page.Items)
	}
}
