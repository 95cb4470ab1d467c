package repo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	dom "github.com/enriqueruelasgarcia/Users-mongo/internal/domain"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches the given id.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidID is returned when an id is not a well-formed ObjectID.
	ErrInvalidID = errors.New("invalid user id")
)

// UserRepo provides user persistence.
type UserRepo interface {
	CreateUser(ctx context.Context, username string) (dom.User, error)
	AppendExercise(ctx context.Context, userID string, ex dom.Exercise) (dom.User, error)
	GetUser(ctx context.Context, userID string) (dom.User, error)
	ListUsers(ctx context.Context) ([]dom.User, error)
}

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Exercises []exerciseDocument `bson:"exercises,omitempty"`
}

type exerciseDocument struct {
	Description string  `bson:"description"`
	Duration    minutes `bson:"duration"`
	Date        string  `bson:"date"`
}

// minutes decodes a stored duration. Older records may hold a double,
// including NaN for input that was never a number; those read as the
// truncated value or 0.
type minutes int

func (m *minutes) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Int32:
		*m = minutes(rv.Int32())
	case bsontype.Int64:
		*m = minutes(rv.Int64())
	case bsontype.Double:
		f := rv.Double()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			*m = 0
			return nil
		}
		*m = minutes(math.Trunc(f))
	case bsontype.String:
		n, err := strconv.Atoi(strings.TrimSpace(rv.StringValue()))
		if err != nil {
			n = 0
		}
		*m = minutes(n)
	case bsontype.Null, bsontype.Undefined:
		*m = 0
	default:
		return fmt.Errorf("duration: unsupported bson type %s", t)
	}
	return nil
}

// MongoUserRepo implements UserRepo on the users collection.
type MongoUserRepo struct {
	store     *storage.Client
	opTimeout time.Duration
}

// NewMongoUserRepo returns a new MongoUserRepo. A zero opTimeout leaves
// deadlines to the caller's context.
func NewMongoUserRepo(store *storage.Client, opTimeout time.Duration) *MongoUserRepo {
	return &MongoUserRepo{store: store, opTimeout: opTimeout}
}

// CreateUser inserts a user with an empty exercise list.
func (r *MongoUserRepo) CreateUser(ctx context.Context, username string) (dom.User, error) {
	coll, err := r.store.Users()
	if err != nil {
		return dom.User{}, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// exercises is written explicitly so the document starts with an empty array
	res, err := coll.InsertOne(ctx, bson.D{
		{Key: "username", Value: username},
		{Key: "exercises", Value: bson.A{}},
	})
	if err != nil {
		return dom.User{}, fmt.Errorf("insert user: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return dom.User{}, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	return dom.User{ID: oid.Hex(), Username: username, Exercises: []dom.Exercise{}}, nil
}

// AppendExercise pushes ex onto the user's log and returns the updated user.
func (r *MongoUserRepo) AppendExercise(ctx context.Context, userID string, ex dom.Exercise) (dom.User, error) {
	oid, err := parseID(userID)
	if err != nil {
		return dom.User{}, err
	}
	coll, err := r.store.Users()
	if err != nil {
		return dom.User{}, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	update := bson.M{"$push": bson.M{"exercises": toExerciseDocument(ex)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dom.User{}, ErrNotFound
		}
		return dom.User{}, fmt.Errorf("append exercise: %w", err)
	}
	return doc.toDomain(), nil
}

// GetUser returns the user with its full exercise log.
func (r *MongoUserRepo) GetUser(ctx context.Context, userID string) (dom.User, error) {
	oid, err := parseID(userID)
	if err != nil {
		return dom.User{}, err
	}
	coll, err := r.store.Users()
	if err != nil {
		return dom.User{}, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc userDocument
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dom.User{}, ErrNotFound
		}
		return dom.User{}, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// ListUsers returns every user with only id and username loaded.
func (r *MongoUserRepo) ListUsers(ctx context.Context) ([]dom.User, error) {
	coll, err := r.store.Users()
	if err != nil {
		return nil, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}, {Key: "username", Value: 1}})
	cur, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	list := []dom.User{}
	for cur.Next(ctx) {
		var doc userDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		list = append(list, dom.User{ID: doc.ID.Hex(), Username: doc.Username})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return list, nil
}

func (r *MongoUserRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// IsValidID reports whether id is a well-formed user id.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func toExerciseDocument(ex dom.Exercise) exerciseDocument {
	return exerciseDocument{
		Description: ex.Description,
		Duration:    minutes(ex.Duration),
		Date:        dom.FormatDate(ex.Date),
	}
}

func (d userDocument) toDomain() dom.User {
	u := dom.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Exercises: make([]dom.Exercise, len(d.Exercises)),
	}
	for i, e := range d.Exercises {
		u.Exercises[i] = dom.Exercise{
			Description: e.Description,
			Duration:    int(e.Duration),
			Date:        dom.ParseStoredDate(e.Date),
		}
	}
	return u
}
