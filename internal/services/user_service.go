package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/language"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/repositories"
)

var (
	// ErrUserInvalidInput signals a malformed profile or address command.
	ErrUserInvalidInput = errors.New("user: invalid input")
	// ErrUserNotFound indicates no profile exists for the given id.
	ErrUserNotFound = errors.New("user: not found")
	// ErrUserAddressNotFound indicates the address does not exist for the user.
	ErrUserAddressNotFound = errors.New("user: address not found")
	// ErrUserInvalidLocale indicates the supplied locale tag failed BCP-47 parsing.
	ErrUserInvalidLocale = errors.New("user: invalid locale")
	// ErrUserInvalidRole indicates the role value is not a known role.
	ErrUserInvalidRole = errors.New("user: invalid role")
)

var addressPhonePattern = regexp.MustCompile(`^[0-9+()\-\s]{6,20}$`)

// UserServiceDeps bundles dependencies for the user service.
type UserServiceDeps struct {
	Users       repositories.UserRepository
	Addresses   repositories.AddressRepository
	Favorites   repositories.FavoriteRepository
	Products    repositories.ProductRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type userService struct {
	users     repositories.UserRepository
	addresses repositories.AddressRepository
	favorites repositories.FavoriteRepository
	products  repositories.ProductRepository
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewUserService wires dependencies into a concrete UserService implementation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("user service: address repository is required")
	}
	if deps.Favorites == nil {
		return nil, errors.New("user service: favorite repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("user service: product repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &userService{
		users:     deps.Users,
		addresses: deps.Addresses,
		favorites: deps.Favorites,
		products:  deps.Products,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// EnsureProfile upserts the profile mirrored from the identity provider. The
// first sync creates the record with the USER role; later syncs refresh the
// identity fields without touching role or preferences.
func (s *userService) EnsureProfile(ctx context.Context, cmd EnsureProfileCommand) (UserProfile, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return UserProfile{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}

	now := s.clock()
	profile, err := s.users.FindByID(ctx, userID)
	switch {
	case err == nil:
		profile.Email = strings.TrimSpace(cmd.Email)
		if name := strings.TrimSpace(cmd.DisplayName); name != "" {
			profile.DisplayName = name
		}
		if photo := strings.TrimSpace(cmd.PhotoURL); photo != "" {
			profile.PhotoURL = photo
		}
	case isNotFound(err):
		locale, localeErr := canonicalLocale(cmd.Locale)
		if localeErr != nil {
			locale = ""
		}
		profile = domain.UserProfile{
			ID:          userID,
			Email:       strings.TrimSpace(cmd.Email),
			DisplayName: strings.TrimSpace(cmd.DisplayName),
			PhotoURL:    strings.TrimSpace(cmd.PhotoURL),
			Role:        domain.RoleUser,
			Locale:      locale,
			CreatedAt:   now,
		}
	default:
		return UserProfile{}, err
	}

	profile.UpdatedAt = now
	saved, err := s.users.Upsert(ctx, profile)
	if err != nil {
		return UserProfile{}, err
	}
	return saved, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserProfile{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	profile, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return UserProfile{}, ErrUserNotFound
		}
		return UserProfile{}, err
	}
	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (UserProfile, error) {
	profile, err := s.GetProfile(ctx, cmd.UserID)
	if err != nil {
		return UserProfile{}, err
	}

	if cmd.DisplayName != nil {
		name := strings.TrimSpace(*cmd.DisplayName)
		if length := utf8.RuneCountInString(name); length < 1 || length > 100 {
			return UserProfile{}, fmt.Errorf("%w: display name must be 1-100 characters", ErrUserInvalidInput)
		}
		profile.DisplayName = name
	}
	if cmd.Locale != nil {
		locale, err := canonicalLocale(*cmd.Locale)
		if err != nil {
			return UserProfile{}, err
		}
		profile.Locale = locale
	}

	profile.UpdatedAt = s.clock()
	saved, err := s.users.Upsert(ctx, profile)
	if err != nil {
		return UserProfile{}, err
	}
	return saved, nil
}

func (s *userService) ListUsers(ctx context.Context, filter UserListFilter) (domain.CursorPage[UserProfile], error) {
	return s.users.List(ctx, filter)
}

func (s *userService) SetRole(ctx context.Context, cmd SetRoleCommand) (UserProfile, error) {
	switch cmd.Role {
	case domain.RoleUser, domain.RoleAdmin:
	default:
		return UserProfile{}, fmt.Errorf("%w: %q", ErrUserInvalidRole, cmd.Role)
	}

	profile, err := s.GetProfile(ctx, cmd.UserID)
	if err != nil {
		return UserProfile{}, err
	}

	profile.Role = cmd.Role
	profile.UpdatedAt = s.clock()
	saved, err := s.users.Upsert(ctx, profile)
	if err != nil {
		return UserProfile{}, err
	}

	s.logger(ctx, "user.role.changed", map[string]any{
		"userId":  saved.ID,
		"role":    string(saved.Role),
		"actorId": cmd.ActorID,
	})
	return saved, nil
}

func (s *userService) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	return s.addresses.List(ctx, userID)
}

// CreateAddress stores a new shipping address. The first address a user saves
// becomes the default regardless of the command flag.
func (s *userService) CreateAddress(ctx context.Context, cmd UpsertAddressCommand) (Address, error) {
	addr, err := s.buildAddress(cmd)
	if err != nil {
		return Address{}, err
	}

	hasAny, err := s.addresses.HasAny(ctx, addr.UserID)
	if err != nil {
		return Address{}, err
	}

	now := s.clock()
	addr.ID = "addr_" + s.newID()
	addr.CreatedAt = now
	addr.UpdatedAt = now
	addr.IsDefault = false

	saved, err := s.addresses.Insert(ctx, addr)
	if err != nil {
		return Address{}, err
	}

	if !hasAny || cmd.IsDefault {
		saved, err = s.addresses.SetDefault(ctx, addr.UserID, saved.ID, now)
		if err != nil {
			return Address{}, err
		}
	}
	return saved, nil
}

func (s *userService) UpdateAddress(ctx context.Context, cmd UpsertAddressCommand) (Address, error) {
	if cmd.AddressID == nil || strings.TrimSpace(*cmd.AddressID) == "" {
		return Address{}, fmt.Errorf("%w: address id is required", ErrUserInvalidInput)
	}
	addr, err := s.buildAddress(cmd)
	if err != nil {
		return Address{}, err
	}
	addressID := strings.TrimSpace(*cmd.AddressID)

	current, err := s.addresses.Get(ctx, addr.UserID, addressID)
	if err != nil {
		if isNotFound(err) {
			return Address{}, ErrUserAddressNotFound
		}
		return Address{}, err
	}

	now := s.clock()
	addr.ID = current.ID
	addr.IsDefault = current.IsDefault
	addr.CreatedAt = current.CreatedAt
	addr.UpdatedAt = now

	saved, err := s.addresses.Update(ctx, addr)
	if err != nil {
		if isNotFound(err) {
			return Address{}, ErrUserAddressNotFound
		}
		return Address{}, err
	}

	if cmd.IsDefault && !saved.IsDefault {
		saved, err = s.addresses.SetDefault(ctx, addr.UserID, saved.ID, now)
		if err != nil {
			return Address{}, err
		}
	}
	return saved, nil
}

// DeleteAddress removes an address. Deleting the default promotes the most
// recently updated remaining address so the user always keeps a default.
func (s *userService) DeleteAddress(ctx context.Context, cmd DeleteAddressCommand) error {
	userID := strings.TrimSpace(cmd.UserID)
	addressID := strings.TrimSpace(cmd.AddressID)
	if userID == "" || addressID == "" {
		return fmt.Errorf("%w: user id and address id are required", ErrUserInvalidInput)
	}

	current, err := s.addresses.Get(ctx, userID, addressID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserAddressNotFound
		}
		return err
	}

	if err := s.addresses.Delete(ctx, userID, addressID); err != nil {
		if isNotFound(err) {
			return ErrUserAddressNotFound
		}
		return err
	}

	if current.IsDefault {
		remaining, err := s.addresses.List(ctx, userID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			next := remaining[0]
			for _, candidate := range remaining[1:] {
				if candidate.UpdatedAt.After(next.UpdatedAt) {
					next = candidate
				}
			}
			if _, err := s.addresses.SetDefault(ctx, userID, next.ID, s.clock()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *userService) SetDefaultAddress(ctx context.Context, cmd SetDefaultAddressCommand) (Address, error) {
	userID := strings.TrimSpace(cmd.UserID)
	addressID := strings.TrimSpace(cmd.AddressID)
	if userID == "" || addressID == "" {
		return Address{}, fmt.Errorf("%w: user id and address id are required", ErrUserInvalidInput)
	}

	saved, err := s.addresses.SetDefault(ctx, userID, addressID, s.clock())
	if err != nil {
		if isNotFound(err) {
			return Address{}, ErrUserAddressNotFound
		}
		return Address{}, err
	}
	return saved, nil
}

func (s *userService) ListFavorites(ctx context.Context, userID string, pager Pagination) (domain.CursorPage[FavoriteProduct], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.CursorPage[FavoriteProduct]{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}

	page, err := s.favorites.List(ctx, userID, pager)
	if err != nil {
		return domain.CursorPage[FavoriteProduct]{}, err
	}

	items := make([]FavoriteProduct, 0, len(page.Items))
	for _, fav := range page.Items {
		product, err := s.products.FindByID(ctx, fav.ProductID)
		if err != nil {
			// Bookmarks may outlive the product they point at.
			if isNotFound(err) {
				continue
			}
			return domain.CursorPage[FavoriteProduct]{}, err
		}
		items = append(items, FavoriteProduct{Favorite: fav, Product: product})
	}

	return domain.CursorPage[FavoriteProduct]{
		Items:         items,
		NextPageToken: page.NextPageToken,
	}, nil
}

// ToggleFavorite flips the bookmark for a product and reports the new state:
// true when the product is now a favorite.
func (s *userService) ToggleFavorite(ctx context.Context, cmd ToggleFavoriteCommand) (bool, error) {
	userID := strings.TrimSpace(cmd.UserID)
	productID := strings.TrimSpace(cmd.ProductID)
	if userID == "" || productID == "" {
		return false, fmt.Errorf("%w: user id and product id are required", ErrUserInvalidInput)
	}

	_, err := s.favorites.Find(ctx, userID, productID)
	switch {
	case err == nil:
		if err := s.favorites.Delete(ctx, userID, productID); err != nil && !isNotFound(err) {
			return false, err
		}
		return false, nil
	case isNotFound(err):
	default:
		return false, err
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if isNotFound(err) {
			return false, fmt.Errorf("%w: unknown product", ErrUserInvalidInput)
		}
		return false, err
	}

	fav := domain.Favorite{
		ID:        "fav_" + s.newID(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: s.clock(),
	}
	if _, err := s.favorites.Put(ctx, fav); err != nil {
		// A concurrent toggle may have won; the bookmark exists either way.
		if !isConflict(err) {
			return false, err
		}
	}
	return true, nil
}

func (s *userService) buildAddress(cmd UpsertAddressCommand) (domain.Address, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return domain.Address{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	recipient := strings.TrimSpace(cmd.Recipient)
	if recipient == "" {
		return domain.Address{}, fmt.Errorf("%w: recipient is required", ErrUserInvalidInput)
	}
	phone := strings.TrimSpace(cmd.Phone)
	if !addressPhonePattern.MatchString(phone) {
		return domain.Address{}, fmt.Errorf("%w: invalid phone number", ErrUserInvalidInput)
	}
	line1 := strings.TrimSpace(cmd.Line1)
	if line1 == "" {
		return domain.Address{}, fmt.Errorf("%w: address line is required", ErrUserInvalidInput)
	}
	district := strings.TrimSpace(cmd.District)
	province := strings.TrimSpace(cmd.Province)
	postal := strings.TrimSpace(cmd.PostalCode)
	if district == "" || province == "" || postal == "" {
		return domain.Address{}, fmt.Errorf("%w: district, province and postal code are required", ErrUserInvalidInput)
	}

	return domain.Address{
		UserID:     userID,
		Recipient:  recipient,
		Phone:      phone,
		Line1:      line1,
		Line2:      strings.TrimSpace(cmd.Line2),
		District:   district,
		Province:   province,
		PostalCode: postal,
	}, nil
}

func canonicalLocale(tag string) (string, error) {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if tag == "" {
		return "", nil
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", errors.Join(ErrUserInvalidLocale, err)
	}
	return parsed.String(), nil
}
