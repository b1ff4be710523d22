// Package mongostore implements storage.Repository on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"cwl-bot/internal/storage"
)

const (
	leagueClansCollection   = "league_clans"
	leaguePlayersCollection = "league_players"
	warBasesCollection      = "war_bases"
	feedsCollection         = "feeds"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ storage.Repository = (*Store)(nil)

// Connect dials the cluster and verifies it with a primary ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Store{client: client, db: client.Database(database), now: time.Now}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the secondary indexes the queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		leaguePlayersCollection: {
			{Keys: bson.D{{Key: "discordUserId", Value: 1}}},
			{Keys: bson.D{{Key: "season", Value: 1}, {Key: "rosterClan", Value: 1}}},
		},
		warBasesCollection: {
			{Keys: bson.D{{Key: "townHall", Value: 1}}},
		},
		feedsCollection: {
			{Keys: bson.D{{Key: "clanTag", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpsertLeagueClan(ctx context.Context, clan storage.LeagueClan) error {
	if clan.UpdatedAt.IsZero() {
		clan.UpdatedAt = s.now()
	}
	doc := leagueClanToDoc(clan)
	_, err := s.db.Collection(leagueClansCollection).ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) GetLeagueClan(ctx context.Context, season, tag string) (storage.LeagueClan, error) {
	var doc leagueClanDoc
	err := s.db.Collection(leagueClansCollection).FindOne(ctx, bson.D{{Key: "_id", Value: seasonKey(season, tag)}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.LeagueClan{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.LeagueClan{}, err
	}
	return doc.model(), nil
}

func (s *Store) ListLeagueClans(ctx context.Context, season string) ([]storage.LeagueClan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "tag", Value: 1}})
	cursor, err := s.db.Collection(leagueClansCollection).Find(ctx, bson.D{{Key: "season", Value: season}}, opts)
	if err != nil {
		return nil, err
	}
	var docs []leagueClanDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	clans := make([]storage.LeagueClan, 0, len(docs))
	for _, doc := range docs {
		clans = append(clans, doc.model())
	}
	return clans, nil
}

func (s *Store) UpsertLeaguePlayer(ctx context.Context, player storage.LeaguePlayer) error {
	if player.UpdatedAt.IsZero() {
		player.UpdatedAt = s.now()
	}
	doc := leaguePlayerToDoc(player)
	_, err := s.db.Collection(leaguePlayersCollection).ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) GetLeaguePlayer(ctx context.Context, season, tag string) (storage.LeaguePlayer, error) {
	var doc leaguePlayerDoc
	err := s.db.Collection(leaguePlayersCollection).FindOne(ctx, bson.D{{Key: "_id", Value: seasonKey(season, tag)}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.LeaguePlayer{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.LeaguePlayer{}, err
	}
	return doc.model(), nil
}

func (s *Store) ListLeaguePlayers(ctx context.Context, season string) ([]storage.LeaguePlayer, error) {
	return s.findLeaguePlayers(ctx, bson.D{{Key: "season", Value: season}, {Key: "registered", Value: true}})
}

func (s *Store) ListLeaguePlayersByUser(ctx context.Context, season, userID string) ([]storage.LeaguePlayer, error) {
	return s.findLeaguePlayers(ctx, bson.D{
		{Key: "season", Value: season},
		{Key: "discordUserId", Value: userID},
		{Key: "registered", Value: true},
	})
}

func (s *Store) ListLeaguePlayersByRoster(ctx context.Context, season, clanTag string) ([]storage.LeaguePlayer, error) {
	return s.findLeaguePlayers(ctx, bson.D{
		{Key: "season", Value: season},
		{Key: "rosterClan", Value: clanTag},
		{Key: "registered", Value: true},
	})
}

func (s *Store) ListAccountsByUser(ctx context.Context, userID string) ([]storage.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "season", Value: -1}})
	cursor, err := s.db.Collection(leaguePlayersCollection).Find(ctx, bson.D{{Key: "discordUserId", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	var docs []leaguePlayerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return accountsFromDocs(docs), nil
}

func (s *Store) findLeaguePlayers(ctx context.Context, filter bson.D) ([]storage.LeaguePlayer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "townHall", Value: -1}, {Key: "name", Value: 1}})
	cursor, err := s.db.Collection(leaguePlayersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []leaguePlayerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	players := make([]storage.LeaguePlayer, 0, len(docs))
	for _, doc := range docs {
		players = append(players, doc.model())
	}
	return players, nil
}

func (s *Store) InsertWarBase(ctx context.Context, base storage.WarBase) error {
	if base.AddedAt.IsZero() {
		base.AddedAt = s.now()
	}
	doc := warBaseToDoc(base)
	filter := bson.D{{Key: "_id", Value: doc.ID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "townHall", Value: doc.TownHall},
			{Key: "link", Value: doc.Link},
			{Key: "notes", Value: doc.Notes},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "addedBy", Value: doc.AddedBy},
			{Key: "addedAt", Value: doc.AddedAt},
			{Key: "claims", Value: doc.Claims},
		}},
	}
	_, err := s.db.Collection(warBasesCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *Store) GetWarBase(ctx context.Context, id string) (storage.WarBase, error) {
	var doc warBaseDoc
	err := s.db.Collection(warBasesCollection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.WarBase{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.WarBase{}, err
	}
	return doc.model(), nil
}

func (s *Store) ListWarBases(ctx context.Context, townHall int) ([]storage.WarBase, error) {
	filter := bson.D{}
	if townHall > 0 {
		filter = bson.D{{Key: "townHall", Value: townHall}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "townHall", Value: -1}, {Key: "addedAt", Value: -1}})
	cursor, err := s.db.Collection(warBasesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []warBaseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	bases := make([]storage.WarBase, 0, len(docs))
	for _, doc := range docs {
		bases = append(bases, doc.model())
	}
	return bases, nil
}

func (s *Store) DeleteWarBase(ctx context.Context, id string) error {
	res, err := s.db.Collection(warBasesCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddWarBaseClaim uses $addToSet so a repeated claim leaves one entry.
func (s *Store) AddWarBaseClaim(ctx context.Context, id, userID string) error {
	return s.updateClaims(ctx, id, bson.D{{Key: "$addToSet", Value: bson.D{{Key: "claims", Value: userID}}}})
}

func (s *Store) RemoveWarBaseClaim(ctx context.Context, id, userID string) error {
	return s.updateClaims(ctx, id, bson.D{{Key: "$pull", Value: bson.D{{Key: "claims", Value: userID}}}})
}

func (s *Store) updateClaims(ctx context.Context, id string, update bson.D) error {
	res, err := s.db.Collection(warBasesCollection).UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertFeed(ctx context.Context, feed storage.Feed) error {
	if feed.CreatedAt.IsZero() {
		feed.CreatedAt = s.now()
	}
	doc := feedToDoc(feed)
	filter := bson.D{{Key: "_id", Value: doc.ID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "channelId", Value: doc.ChannelID},
			{Key: "guildId", Value: doc.GuildID},
			{Key: "clanTag", Value: doc.ClanTag},
			{Key: "webhookId", Value: doc.WebhookID},
			{Key: "webhookToken", Value: doc.WebhookToken},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: doc.CreatedAt}}},
	}
	_, err := s.db.Collection(feedsCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *Store) DeleteFeed(ctx context.Context, channelID, clanTag string) error {
	res, err := s.db.Collection(feedsCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: feedKey(channelID, clanTag)}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListFeedsByClan(ctx context.Context, clanTag string) ([]storage.Feed, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.db.Collection(feedsCollection).Find(ctx, bson.D{{Key: "clanTag", Value: clanTag}}, opts)
	if err != nil {
		return nil, err
	}
	var docs []feedDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	feeds := make([]storage.Feed, 0, len(docs))
	for _, doc := range docs {
		feeds = append(feeds, doc.model())
	}
	return feeds, nil
}

func (s *Store) ListFeedClans(ctx context.Context) ([]string, error) {
	values, err := s.db.Collection(feedsCollection).Distinct(ctx, "clanTag", bson.D{})
	if err != nil {
		return nil, err
	}
	return distinctStrings(values), nil
}
