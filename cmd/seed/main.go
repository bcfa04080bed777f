// seed loads a demo office into Postgres: patients, providers,
// operatories and two weeks of working schedules.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalops/frontdesk-scheduling/internal/db"
)

const (
	providerCount  = 6
	operatoryCount = 8
	patientCount   = 2000
	scheduleDays   = 14
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	provNums, err := seedProviders(context.Background(), pool, providerCount)
	if err != nil {
		log.Fatalf("seed providers: %v", err)
	}
	opNums, err := seedOperatories(context.Background(), pool, operatoryCount)
	if err != nil {
		log.Fatalf("seed operatories: %v", err)
	}
	if err := seedPatients(context.Background(), pool, patientCount); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSchedules(context.Background(), pool, provNums, opNums); err != nil {
		log.Fatalf("seed schedules: %v", err)
	}

	log.Println("seed complete")
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, count int) ([]int64, error) {
	log.Printf("seeding %d providers", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	nums := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		abbr := fmt.Sprintf("DR%s", gofakeit.LetterN(3))

		var provNum int64
		err := tx.QueryRow(ctx, `
			INSERT INTO providers (abbr, active, created_at, updated_at)
			VALUES ($1, true, now(), now())
			RETURNING prov_num
		`, abbr).Scan(&provNum)
		if err != nil {
			return nil, err
		}
		nums = append(nums, provNum)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("providers seeded")
	return nums, nil
}

func seedOperatories(ctx context.Context, pool *pgxpool.Pool, count int) ([]int64, error) {
	log.Printf("seeding %d operatories", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	nums := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		var opNum int64
		err := tx.QueryRow(ctx, `
			INSERT INTO operatories (op_name, active, created_at, updated_at)
			VALUES ($1, true, now(), now())
			RETURNING op_num
		`, fmt.Sprintf("Chair %d", i+1)).Scan(&opNum)
		if err != nil {
			return nil, err
		}
		nums = append(nums, opNum)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("operatories seeded")
	return nums, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (l_name, f_name, created_at, updated_at)
				VALUES ($1, $2, now(), now())
			`, gofakeit.LastName(), gofakeit.FirstName())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}

// seedSchedules gives each provider a chair and an 08:00-17:00 window on
// every weekday of the next scheduleDays days.
func seedSchedules(ctx context.Context, pool *pgxpool.Pool, provNums, opNums []int64) error {
	log.Printf("seeding schedules for %d providers over %d days", len(provNums), scheduleDays)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	day := time.Now()
	for d := 0; d < scheduleDays; d++ {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		for i, provNum := range provNums {
			opNum := opNums[i%len(opNums)]
			_, err := tx.Exec(ctx, `
				INSERT INTO schedules (sched_date, prov_num, op_num, start_time, stop_time, active)
				VALUES ($1, $2, $3, '08:00:00', '17:00:00', true)
			`, day.Format("2006-01-02"), provNum, opNum)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("schedules seeded")
	return nil
}
