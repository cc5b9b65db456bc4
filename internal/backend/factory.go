package backend

import (
	"context"
	"fmt"

	"betledger/internal/log"
	"betledger/internal/storage"
	"betledger/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Store: repo, Cleanup: repo.Close}, nil

	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(config.DatabaseURL, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized PostgreSQL backend")
		return &BackendResult{Store: repo, Cleanup: repo.Close}, nil

	case MemoryBackend:
		f.logger.WarnContext(ctx, "Initialized memory backend, data is lost on restart")
		st := memory.New()
		return &BackendResult{Store: st, Cleanup: st.Close}, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}
