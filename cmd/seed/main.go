package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/hospital-guard-duty/internal/db"
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

	if err := seedReferenceData(context.Background(), pool); err != nil {
		log.Fatalf("seed reference data: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, 200); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedRooms(context.Background(), pool, 80); err != nil {
		log.Fatalf("seed rooms: %v", err)
	}

	log.Println("seed complete")
}

var specialties = []struct {
	code        int32
	sector      int32
	description string
}{
	{101, 1, "Cardiology"},
	{102, 1, "Internal Medicine"},
	{103, 2, "General Surgery"},
	{104, 2, "Orthopedics"},
	{105, 3, "Pediatrics"},
	{106, 3, "Neonatology"},
	{107, 4, "Emergency Medicine"},
	{108, 4, "Intensive Care"},
	{109, 5, "Neurology"},
	{110, 5, "Psychiatry"},
}

var shiftSlots = []struct {
	id    int32
	label string
}{
	{1, "Morning"},
	{2, "Afternoon"},
	{3, "Night"},
	{4, "Weekend Day"},
	{5, "Weekend Night"},
}

func seedReferenceData(ctx context.Context, pool *pgxpool.Pool) error {
	log.Printf("seeding %d specialties and %d shift slots", len(specialties), len(shiftSlots))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range specialties {
		_, err := tx.Exec(ctx, `
			INSERT INTO specialties (code, sector_id, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (code) DO NOTHING
		`, s.code, s.sector, s.description)
		if err != nil {
			return err
		}
	}

	for _, s := range shiftSlots {
		_, err := tx.Exec(ctx, `
			INSERT INTO shift_slots (id, label)
			VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING
		`, s.id, s.label)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("reference data seeded")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		license := int64(10000 + i)
		name := gofakeit.Name()
		primary := specialties[gofakeit.Number(0, len(specialties)-1)].code

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (license, name, primary_specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, license, name, primary)
		if err != nil {
			return err
		}

		// Primary plus up to two extra eligible specialties
		eligible := map[int32]bool{primary: true}
		for j := 0; j < gofakeit.Number(0, 2); j++ {
			eligible[specialties[gofakeit.Number(0, len(specialties)-1)].code] = true
		}

		for code := range eligible {
			_, err := tx.Exec(ctx, `
				INSERT INTO doctor_specialties (doctor_license, specialty_code)
				VALUES ($1, $2)
			`, license, code)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}

func seedRooms(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d rooms", count)

	orientations := []string{"north", "south", "east", "west"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		floor := int32(gofakeit.Number(1, 6))
		orientation := orientations[gofakeit.Number(0, len(orientations)-1)]
		sector := specialties[gofakeit.Number(0, len(specialties)-1)].sector

		var roomNumber int64
		err := tx.QueryRow(ctx, `
			INSERT INTO rooms (floor, orientation, sector_id, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			RETURNING number
		`, floor, orientation, sector).Scan(&roomNumber)
		if err != nil {
			return err
		}

		for bed := int32(1); bed <= int32(gofakeit.Number(1, 4)); bed++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO beds (room_number, number, status, created_at, updated_at)
				VALUES ($1, $2, 'active', now(), now())
			`, roomNumber, bed)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("rooms seeded")
	return nil
}
