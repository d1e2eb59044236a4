// Command seed 向配置的数据库写入演示数据
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kashflo/config"
	"kashflo/database"
	"kashflo/logger"
	"kashflo/models"
	"kashflo/service"
)

var categoryNames = []string{
	"Food", "Transport", "Entertainment", "Utilities", "Shopping",
	"Health", "Education", "Travel", "Gifts", "Miscellaneous",
}

var demoUsers = []service.SignupInput{
	{FirstName: "Alice", LastName: "Johnson", Email: "alice@example.com", Password: "Password123!"},
	{FirstName: "Bob", LastName: "Smith", Email: "bob@example.com", Password: "Password123!"},
}

type options struct {
	Years         []int
	PerCategory   int
	Users         []service.SignupInput
	CategoryNames []string
	Rand          *rand.Rand
}

func main() {
	configFile := flag.String("config", "", "外部配置文件路径（可选）")
	perCategory := flag.Int("n", 10, "每个类别每年的交易数")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "随机种子")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Setup(cfg.Log)

	if err := database.Init(cfg); err != nil {
		log.Fatal().Err(err).Msg("init database")
	}

	opts := options{
		Years:         []int{2023, 2024, 2025},
		PerCategory:   *perCategory,
		Users:         demoUsers,
		CategoryNames: categoryNames,
		Rand:          rand.New(rand.NewPCG(*seed, *seed>>1)),
	}
	if err := run(context.Background(), database.GetDB(), opts); err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	log.Info().Uint64("seed", *seed).Msg("seed complete")
}

func run(ctx context.Context, db *gorm.DB, opts options) error {
	users := service.NewUserService(db)
	categories := service.NewCategoryService(db)
	transactions := service.NewTransactionService(db)

	for _, in := range opts.Users {
		user, err := users.Register(ctx, in)
		if errors.Is(err, service.ErrEmailTaken) {
			user, err = users.Authenticate(ctx, in.Email, in.Password)
		}
		if err != nil {
			return fmt.Errorf("user %s: %w", in.Email, err)
		}
		uc := user.Context()

		created := 0
		for _, name := range opts.CategoryNames {
			category, err := categories.Create(ctx, uc, service.CategoryInput{
				Name:        name,
				Description: name + " expenses",
			})
			if err != nil && !errors.Is(err, service.ErrCategoryExists) {
				return fmt.Errorf("category %s: %w", name, err)
			}

			for _, year := range opts.Years {
				for i := 0; i < opts.PerCategory; i++ {
					if _, err := transactions.Create(ctx, uc, randomTransaction(opts.Rand, category.ID, name, year)); err != nil {
						return fmt.Errorf("transaction for %s: %w", name, err)
					}
					created++
				}
			}
		}

		log.Info().Str("user", in.Email).Int("transactions", created).Msg("seeded user")
	}
	return nil
}

func randomTransaction(r *rand.Rand, categoryID uuid.UUID, category string, year int) service.TransactionInput {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	at := start.Add(time.Duration(r.Int64N(int64(end.Sub(start)))))

	return service.TransactionInput{
		CategoryID:      categoryID,
		Name:            fmt.Sprintf("%s %s", category, at.Format("Jan 2")),
		Description:     "seeded",
		Amount:          decimal.New(r.Int64N(49_500)+500, -2),
		TransactionDate: at,
		TransactionType: models.TransactionTypes[r.IntN(len(models.TransactionTypes))],
		PaymentMethod:   models.PaymentMethods[r.IntN(len(models.PaymentMethods))],
		Account:         models.AccountTypes[r.IntN(len(models.AccountTypes))],
	}
}
