package firestore

import (
	"context"

	"sahara/internal/domain/entity"
	"sahara/internal/domain/repository"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// userRepository implements the repository.UserRepository interface.
type userRepository struct {
	client *firestore.Client
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(client *firestore.Client) repository.UserRepository {
	return &userRepository{
		client: client,
	}
}

// FindByPhone retrieves a profile by its phone number document key.
func (repo *userRepository) FindByPhone(ctx context.Context, phoneNumber string) (*entity.UserProfile, error) {
	doc, err := repo.client.Collection(usersCollection).Doc(phoneNumber).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to get user document")
	}

	return toUserDomain(doc)
}

// FindByAttribute retrieves all profiles whose attribute equals the value.
func (repo *userRepository) FindByAttribute(ctx context.Context, field, value string) ([]*entity.UserProfile, error) {
	iter := repo.client.Collection(usersCollection).
		Where(field, "==", value).
		Documents(ctx)
	defer iter.Stop()

	var users []*entity.UserProfile
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to iterate filtered users")
		}

		user, err := toUserDomain(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

// ForEachUser enumerates the whole directory in key-ordered pages so the scan
// never holds more than one page in memory.
func (repo *userRepository) ForEachUser(ctx context.Context, pageSize int, fn func(*entity.UserProfile) error) error {
	var lastID string

	for {
		query := repo.client.Collection(usersCollection).
			OrderBy(firestore.DocumentID, firestore.Asc).
			Limit(pageSize)
		if lastID != "" {
			query = query.StartAfter(lastID)
		}

		docs, err := query.Documents(ctx).GetAll()
		if err != nil {
			return errors.Wrap(err, "failed to fetch user page")
		}
		if len(docs) == 0 {
			return nil
		}

		for _, doc := range docs {
			user, err := toUserDomain(doc)
			if err != nil {
				return err
			}
			if err := fn(user); err != nil {
				return err
			}
		}

		lastID = docs[len(docs)-1].Ref.ID
	}
}

// AddPushToken unions a token into the profile's token set. ArrayUnion keeps
// the list duplicate-free without a read-modify-write cycle.
func (repo *userRepository) AddPushToken(ctx context.Context, phoneNumber, token string) error {
	_, err := repo.client.Collection(usersCollection).Doc(phoneNumber).Update(ctx, []firestore.Update{
		{Path: "pushTokens", Value: firestore.ArrayUnion(token)},
		{Path: "lastTokenUpdate", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return repository.ErrUserNotFound
		}

		return errors.Wrap(err, "failed to add push token")
	}

	return nil
}

// toUserDomain converts a Firestore document to a domain UserProfile.
func toUserDomain(doc *firestore.DocumentSnapshot) (*entity.UserProfile, error) {
	var user entity.UserProfile
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Wrapf(err, "malformed user document %s", doc.Ref.ID)
	}

	// The document ID is authoritative for the phone number.
	user.PhoneNumber = doc.Ref.ID

	return &user, nil
}
