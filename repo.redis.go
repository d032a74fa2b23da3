package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HBooks   string = "books"
	LBookIDs string = "books.ids"
)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Add inserts a new book record and appends its id to the creation ordered list.
func (rs *redisBookStorage) Add(ctx context.Context, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, HBooks, book.ID, bookBytes)
		pipe.RPush(ctx, LBookIDs, book.ID)
		return nil
	})
	return err
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, HBooks, id).Result()
	if err == redis.Nil {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// Delete removes a book record based on its ID and returns its last state.
func (rs *redisBookStorage) Delete(ctx context.Context, id string) (Book, error) {
	book, err := rs.GetOne(ctx, id)
	if err != nil {
		return book, err
	}
	var hdel *redis.IntCmd
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hdel = pipe.HDel(ctx, HBooks, id)
		pipe.LRem(ctx, LBookIDs, 1, id)
		return nil
	})
	if err != nil {
		return book, err
	}
	if hdel.Val() == 0 {
		return Book{}, ErrBookNotFound
	}
	return book, nil
}

// Update applies the partial update on an existing book record.
func (rs *redisBookStorage) Update(ctx context.Context, id string, update BookUpdate) (Book, error) {
	book, err := rs.GetOne(ctx, id)
	if err != nil {
		return book, err
	}
	book = update.Apply(book)
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return book, err
	}
	err = rs.client.HSet(ctx, HBooks, id, bookBytes).Err()
	return book, err
}

// GetAll retrieves all books stored in the redis database
// following the ids list, which keeps their creation order.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	books := []Book{}
	ids, err := rs.client.LRange(ctx, LBookIDs, 0, -1).Result()
	if err != nil || len(ids) == 0 {
		return books, err
	}
	values, err := rs.client.HMGet(ctx, HBooks, ids...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		bookJSONString, ok := value.(string)
		if !ok {
			rs.logger.Warn("book id listed without record", zap.String("book.id", ids[i]))
			continue
		}
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}
