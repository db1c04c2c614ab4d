// Package store persists decoded messages to a SQLite database.
package store

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/bemasher/rtlbch/protocol"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

var ErrMessage = errors.New("store: value is not a message")

// A Row is a single decoded message.
type Row struct {
	ID       uint      `gorm:"primaryKey"`
	Time     time.Time `gorm:"index"`
	Offset   int
	Type     string `gorm:"index;size:32"`
	Status   string `gorm:"index;size:16"`
	Checksum string `gorm:"size:128"`

	// The message's fields as JSON.
	Message string
}

func (Row) TableName() string {
	return "messages"
}

// Store writes messages to a SQLite database through the pure Go driver.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path. A nil log silences gorm.
func Open(path string, log *logrus.Logger) (*Store, error) {
	var gormLog logger.Interface
	if log != nil {
		gormLog = logger.New(log, logger.Config{
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		})
	} else {
		gormLog = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := configure(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	if err := db.AutoMigrate(&Row{}); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return &Store{db: db}, nil
}

func configure(sqlDB *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=memory",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return errors.Wrap(err, pragma)
		}
	}

	return nil
}

// NewRow converts a logged message to a row.
func NewRow(msg protocol.LogMessage) (Row, error) {
	buf, err := json.Marshal(msg.Message)
	if err != nil {
		return Row{}, errors.Wrap(err, "marshal message")
	}

	return Row{
		Time:     msg.Time,
		Offset:   msg.Offset,
		Type:     msg.Type,
		Status:   msg.Status().String(),
		Checksum: hex.EncodeToString(msg.Checksum()),
		Message:  string(buf),
	}, nil
}

// Encode inserts a protocol.LogMessage, satisfying the command's encoder
// interface.
func (s *Store) Encode(v interface{}) error {
	msg, ok := v.(protocol.LogMessage)
	if !ok {
		return errors.Wrapf(ErrMessage, "%T", v)
	}

	row, err := NewRow(msg)
	if err != nil {
		return err
	}

	return s.db.Create(&row).Error
}

// Rows returns the stored rows of the given type in insertion order, or every
// row if msgType is empty.
func (s *Store) Rows(msgType string) (rows []Row, err error) {
	tx := s.db.Order("id")
	if msgType != "" {
		tx = tx.Where("type = ?", msgType)
	}

	err = tx.Find(&rows).Error
	return rows, err
}

// Count returns the number of rows with the given status.
func (s *Store) Count(status string) (n int64, err error) {
	err = s.db.Model(&Row{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
