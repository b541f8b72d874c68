package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crudusers/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// userDocument is the stored shape of a models.User.
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password"`
	Name      string             `bson:"name"`
	Lastname  string             `bson:"lastname"`
	Address   string             `bson:"address"`
	City      string             `bson:"city"`
	Email     string             `bson:"email"`
	Telephone string             `bson:"telephone"`
	Dni       int64              `bson:"dni"`
}

func newUserDocument(u models.User) userDocument {
	return userDocument{
		Username:  u.Username,
		Password:  u.Password,
		Name:      u.Name,
		Lastname:  u.Lastname,
		Address:   u.Address,
		City:      u.City,
		Email:     u.Email,
		Telephone: u.Telephone,
		Dni:       u.Dni,
	}
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Password:  d.Password,
		Name:      d.Name,
		Lastname:  d.Lastname,
		Address:   d.Address,
		City:      d.City,
		Email:     d.Email,
		Telephone: d.Telephone,
		Dni:       d.Dni,
	}
}

// MongoConfig holds MongoDB connection details.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoUserRepository is a MongoDB implementation of UserRepository.
// IDs are ObjectID hex strings; a malformed ID never matches a user.
type MongoUserRepository struct {
	client     *mongo.Client
	collection *mongo.Collection

	// names of the unique indexes, as found or created by EnsureIndexes
	emailIndex    string
	usernameIndex string
}

// NewMongoUserRepository connects to MongoDB and makes sure the unique
// indexes on email and username exist.
func NewMongoUserRepository(ctx context.Context, cfg MongoConfig) (*MongoUserRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to reach MongoDB: %w", err)
	}

	r := &MongoUserRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := r.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return r, nil
}

// indexSpec is one entry returned by listIndexes.
type indexSpec struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique"`
}

// on reports whether the index is an ascending or descending index on field alone.
func (s indexSpec) on(field string) bool {
	if len(s.Key) != 1 || s.Key[0].Key != field {
		return false
	}
	switch v := s.Key[0].Value.(type) {
	case int32:
		return v == 1 || v == -1
	case int64:
		return v == 1 || v == -1
	case float64:
		return v == 1 || v == -1
	}
	return false
}

func findIndex(indexes []indexSpec, field string) (indexSpec, bool) {
	for _, idx := range indexes {
		if idx.on(field) {
			return idx, true
		}
	}
	return indexSpec{}, false
}

// EnsureIndexes makes sure email and username are uniquely indexed and
// lastname is indexed. Indexes already present on those fields are reused
// under whatever name they carry; only missing ones are created.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	cursor, err := r.collection.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list user indexes: %w", err)
	}
	var existing []indexSpec
	if err := cursor.All(ctx, &existing); err != nil {
		return fmt.Errorf("failed to decode user indexes: %w", err)
	}

	var missing []mongo.IndexModel
	for _, unique := range []struct {
		field string
		name  *string
	}{
		{field: "email", name: &r.emailIndex},
		{field: "username", name: &r.usernameIndex},
	} {
		if idx, ok := findIndex(existing, unique.field); ok {
			if !idx.Unique {
				return fmt.Errorf("index %s on %s is not unique", idx.Name, unique.field)
			}
			*unique.name = idx.Name
			continue
		}
		*unique.name = unique.field + "_unique"
		missing = append(missing, mongo.IndexModel{
			Keys:    bson.D{{Key: unique.field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(*unique.name),
		})
	}
	if _, ok := findIndex(existing, "lastname"); !ok {
		missing = append(missing, mongo.IndexModel{Keys: bson.D{{Key: "lastname", Value: -1}}})
	}
	if len(missing) == 0 {
		return nil
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, missing); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// FindByID retrieves a user by its ObjectID hex string.
func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
	}
	return r.findOne(ctx, "ID "+id, bson.M{"_id": oid})
}

// FindByEmail retrieves a user by email.
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email "+email, bson.M{"email": email})
}

// FindByUsername retrieves a user by username.
func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username "+username, bson.M{"username": username})
}

// FindByNameAndLastname retrieves the first user with the given name and lastname.
func (r *MongoUserRepository) FindByNameAndLastname(ctx context.Context, name, lastname string) (*models.User, error) {
	return r.findOne(ctx, "name "+name+" "+lastname, bson.M{"name": name, "lastname": lastname})
}

func (r *MongoUserRepository) findOne(ctx context.Context, what string, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user with %s: %w", what, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", what, err)
	}
	user := doc.toModel()
	return &user, nil
}

// FindAll retrieves all users in natural order.
func (r *MongoUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, options.Find())
}

// FindAllOrderedByLastname retrieves all users sorted by lastname, descending.
func (r *MongoUserRepository) FindAllOrderedByLastname(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, options.Find().SetSort(bson.D{{Key: "lastname", Value: -1}}))
}

func (r *MongoUserRepository) find(ctx context.Context, opts *options.FindOptions) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toModel())
	}
	return users, nil
}

// Insert stores a new user document and sets user.ID to the generated ObjectID.
func (r *MongoUserRepository) Insert(ctx context.Context, user *models.User) error {
	res, err := r.collection.InsertOne(ctx, newUserDocument(*user))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", r.translateMongoError(err))
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted ID type %T", res.InsertedID)
	}
	user.ID = oid.Hex()
	return nil
}

// Replace overwrites the whole document keyed by user.ID.
func (r *MongoUserRepository) Replace(ctx context.Context, user *models.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, ErrUserNotFound)
	}
	doc := newUserDocument(*user)
	doc.ID = oid

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", r.translateMongoError(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, ErrUserNotFound)
	}
	return nil
}

// translateMongoError maps a duplicate key error onto the index that rejected it.
func (r *MongoUserRepository) translateMongoError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	switch msg := err.Error(); {
	case rejectedBy(msg, r.emailIndex):
		return ErrDuplicateEmail
	case rejectedBy(msg, r.usernameIndex):
		return ErrDuplicateUsername
	}
	return err
}

// rejectedBy matches the "index: <name> dup key" part of an E11000 message.
func rejectedBy(msg, index string) bool {
	return index != "" && strings.Contains(msg, "index: "+index+" ")
}

// DeleteByID deletes a user document. Deleting an unknown ID is a no-op.
func (r *MongoUserRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ExistsByID reports whether a document with id is stored.
func (r *MongoUserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check user %s: %w", id, err)
	}
	return n > 0, nil
}

// Ping checks the primary is reachable.
func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (r *MongoUserRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
