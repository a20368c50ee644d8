package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type plantDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	Price            float64            `bson:"price"`
	Category         primitive.ObjectID `bson:"category"`
	Images           []string           `bson:"images"`
	Availability     int                `bson:"availability"`
	Instruction      []string           `bson:"instruction"`
	Benefits         []string           `bson:"benefits"`
	Difficulty       string             `bson:"difficulty,omitempty"`
	LightRequirement string             `bson:"lightRequirement,omitempty"`
	Featured         bool               `bson:"featured"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

type categoryDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Category    string             `bson:"category"`
	Description string             `bson:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *categoryDoc) model() *Category {
	return &Category{
		ID:          d.ID.Hex(),
		Category:    d.Category,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d *plantDoc) model() *Plant {
	p := &Plant{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		Price:            d.Price,
		Category:         CategoryRef{ID: d.Category.Hex()},
		Images:           d.Images,
		Availability:     d.Availability,
		Instruction:      d.Instruction,
		Benefits:         d.Benefits,
		Difficulty:       d.Difficulty,
		LightRequirement: d.LightRequirement,
		Featured:         d.Featured,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	normalizePlant(p)
	return p
}

type mongoRepo struct {
	plants     *mongo.Collection
	categories *mongo.Collection
}

// NewMongoRepository returns a Repository over the plants and categories
// collections of db.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepo{
		plants:     db.Collection("plants"),
		categories: db.Collection("categories"),
	}
}

// EnsureMongoIndexes creates the unique name indexes and the availability
// index the filters rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("plants").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "availability", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("plant indexes: %w", err)
	}
	_, err = db.Collection("categories").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "category", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("category indexes: %w", err)
	}
	return nil
}

func objectID(field, raw string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, &InvalidIDError{Field: field, Value: raw}
	}
	return oid, nil
}

func translateMongo(err error, field, value string) error {
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateError{Field: field, Value: value, Err: err}
	}
	return err
}

func (r *mongoRepo) CreatePlant(ctx context.Context, p *Plant) error {
	categoryID, err := objectID("category", p.Category.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := plantDoc{
		ID:               primitive.NewObjectID(),
		Name:             p.Name,
		Price:            p.Price,
		Category:         categoryID,
		Images:           p.Images,
		Availability:     p.Availability,
		Instruction:      p.Instruction,
		Benefits:         p.Benefits,
		Difficulty:       p.Difficulty,
		LightRequirement: p.LightRequirement,
		Featured:         p.Featured,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := r.plants.InsertOne(ctx, doc); err != nil {
		return translateMongo(err, "name", p.Name)
	}
	p.ID = doc.ID.Hex()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *mongoRepo) GetPlant(ctx context.Context, id string, populate Populate) (*Plant, error) {
	oid, err := objectID("id", id)
	if err != nil {
		return nil, err
	}
	var doc plantDoc
	err = r.plants.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("Plant", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get plant %s: %w", id, err)
	}
	plants, err := r.populate(ctx, []plantDoc{doc}, populate)
	if err != nil {
		return nil, err
	}
	return plants[0], nil
}

// bsonFilter translates a Filter into a query document.
func bsonFilter(f Filter) (bson.M, error) {
	q := bson.M{}
	if f.CategoryID != "" {
		oid, err := objectID("category", f.CategoryID)
		if err != nil {
			return nil, err
		}
		q["category"] = oid
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		q["price"] = price
	}
	if f.AvailableOnly {
		q["availability"] = bson.M{"$gt": 0}
	}
	if f.Search != "" {
		q["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	if f.FeaturedOnly {
		q["featured"] = true
	}
	if f.Difficulty != "" {
		q["difficulty"] = f.Difficulty
	}
	if f.LightRequirement != "" {
		q["lightRequirement"] = f.LightRequirement
	}
	return q, nil
}

func (r *mongoRepo) ListPlants(ctx context.Context, f Filter, page Page) ([]*Plant, error) {
	q, err := bsonFilter(f)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if page.Skip > 0 {
		opts.SetSkip(int64(page.Skip))
	}
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}
	cur, err := r.plants.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	var docs []plantDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode plants: %w", err)
	}
	return r.populate(ctx, docs, PopulateName)
}

// populate resolves the category references of docs with a single $in query.
func (r *mongoRepo) populate(ctx context.Context, docs []plantDoc, level Populate) ([]*Plant, error) {
	plants := make([]*Plant, 0, len(docs))
	if len(docs) == 0 {
		return plants, nil
	}

	categories := map[primitive.ObjectID]*Category{}
	if level != PopulateNone {
		ids := make([]primitive.ObjectID, 0, len(docs))
		for _, d := range docs {
			ids = append(ids, d.Category)
		}
		cur, err := r.categories.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, fmt.Errorf("populate categories: %w", err)
		}
		var cdocs []categoryDoc
		if err := cur.All(ctx, &cdocs); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
		for i := range cdocs {
			categories[cdocs[i].ID] = cdocs[i].model()
		}
	}

	for i := range docs {
		p := docs[i].model()
		p.Category = p.Category.populate(categories[docs[i].Category], level)
		plants = append(plants, p)
	}
	return plants, nil
}

func (r *mongoRepo) UpdatePlant(ctx context.Context, p *Plant) error {
	oid, err := objectID("id", p.ID)
	if err != nil {
		return err
	}
	categoryID, err := objectID("category", p.Category.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	set := bson.M{
		"name":             p.Name,
		"price":            p.Price,
		"category":         categoryID,
		"images":           p.Images,
		"availability":     p.Availability,
		"instruction":      p.Instruction,
		"benefits":         p.Benefits,
		"difficulty":       p.Difficulty,
		"lightRequirement": p.LightRequirement,
		"featured":         p.Featured,
		"updatedAt":        now,
	}
	res, err := r.plants.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return translateMongo(err, "name", p.Name)
	}
	if res.MatchedCount == 0 {
		return notFound("Plant", p.ID)
	}
	p.UpdatedAt = now
	return nil
}

func (r *mongoRepo) DeletePlant(ctx context.Context, id string) error {
	return deleteDoc(ctx, r.plants, "Plant", id)
}

func (r *mongoRepo) CreateCategory(ctx context.Context, c *Category) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := categoryDoc{
		ID:          primitive.NewObjectID(),
		Category:    c.Category,
		Description: c.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.categories.InsertOne(ctx, doc); err != nil {
		return translateMongo(err, "category", c.Category)
	}
	c.ID = doc.ID.Hex()
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *mongoRepo) GetCategory(ctx context.Context, id string) (*Category, error) {
	oid, err := objectID("category", id)
	if err != nil {
		return nil, err
	}
	var doc categoryDoc
	err = r.categories.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("Category", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	return doc.model(), nil
}

func (r *mongoRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	return r.findCategories(ctx, bson.M{}, 0)
}

func (r *mongoRepo) SearchCategories(ctx context.Context, q string, limit int) ([]*Category, error) {
	return r.findCategories(ctx, bson.M{
		"category": primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"},
	}, limit)
}

func (r *mongoRepo) findCategories(ctx context.Context, q bson.M, limit int) ([]*Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.categories.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	out := make([]*Category, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].model())
	}
	return out, nil
}

func (r *mongoRepo) DeleteCategory(ctx context.Context, id string) error {
	return deleteDoc(ctx, r.categories, "Category", id)
}

func (r *mongoRepo) Purge(ctx context.Context) error {
	if _, err := r.plants.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("purge plants: %w", err)
	}
	if _, err := r.categories.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("purge categories: %w", err)
	}
	return nil
}

func deleteDoc(ctx context.Context, coll *mongo.Collection, entity, id string) error {
	oid, err := objectID("id", id)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return notFound(entity, id)
	}
	return nil
}
