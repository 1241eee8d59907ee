package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-booking/internal/db"
	"github.com/clinicdesk/clinic-booking/internal/schedule"
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

	specialtyIDs, err := seedSpecialties(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed specialties: %v", err)
	}
	doctorIDs, err := seedDoctors(context.Background(), pool, specialtyIDs, 60)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	patientIDs, err := seedPatients(context.Background(), pool, 3000)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedRelatives(context.Background(), pool, patientIDs, 500); err != nil {
		log.Fatalf("seed relatives: %v", err)
	}
	if err := seedShiftWindows(context.Background(), pool); err != nil {
		log.Fatalf("seed shift windows: %v", err)
	}
	if err := seedWorkShifts(context.Background(), pool, doctorIDs, 30); err != nil {
		log.Fatalf("seed work shifts: %v", err)
	}

	log.Println("seed complete")
}

func seedSpecialties(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	names := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	log.Printf("seeding %d specialties", len(names))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO specialties (id, name)
			VALUES ($1, $2)
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("specialties seeded")
	return ids, nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, specialtyIDs []uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		spec := specialtyIDs[gofakeit.Number(0, len(specialtyIDs)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty_id, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	ids := make([]uuid.UUID, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			phone := gofakeit.Phone()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, full_name, phone, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, name, phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return ids, nil
}

func seedRelatives(ctx context.Context, pool *pgxpool.Pool, patientIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d relative profiles", count)

	relationships := []string{"child", "parent", "spouse", "sibling"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		patient := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]
		name := gofakeit.Name()
		rel := relationships[gofakeit.Number(0, len(relationships)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO relative_profiles (id, patient_id, full_name, relationship, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, patient, name, rel)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("relative profiles seeded")
	return nil
}

// seedShiftWindows writes the clinic's clock boundaries for the current and
// next month: morning 07:30-11:30, afternoon 13:30-17:00, evening 17:30-20:00.
func seedShiftWindows(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding shift windows")

	windows := map[schedule.Shift][2]int{
		schedule.ShiftMorning:   {7*60 + 30, 11*60 + 30},
		schedule.ShiftAfternoon: {13*60 + 30, 17 * 60},
		schedule.ShiftEvening:   {17*60 + 30, 20 * 60},
	}

	now := time.Now()
	months := []string{
		schedule.MonthKey(now),
		schedule.MonthKey(now.AddDate(0, 1, 0)),
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, month := range months {
		for shift, bounds := range windows {
			_, err := tx.Exec(ctx, `
				INSERT INTO shift_windows (month, shift, start_min, end_min)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (month, shift) DO NOTHING
			`, month, shift, bounds[0], bounds[1])
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("shift windows seeded")
	return nil
}

func seedWorkShifts(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID, days int) error {
	log.Printf("seeding work shifts for %d doctors over %d days", len(doctorIDs), days)

	shifts := []schedule.Shift{schedule.ShiftMorning, schedule.ShiftAfternoon, schedule.ShiftEvening}
	today := time.Now().Truncate(24 * time.Hour)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, doctorID := range doctorIDs {
		for d := 0; d < days; d++ {
			date := today.AddDate(0, 0, d)
			if date.Weekday() == time.Sunday {
				continue
			}
			for _, shift := range shifts {
				// roughly two out of three shifts worked
				if gofakeit.Number(0, 2) == 0 {
					continue
				}
				_, err := tx.Exec(ctx, `
					INSERT INTO work_shifts (doctor_id, work_date, shift)
					VALUES ($1, $2, $3)
					ON CONFLICT DO NOTHING
				`, doctorID, date, shift)
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("work shifts seeded")
	return nil
}
