package pipeline

import (
	"context"
	"fmt"
	"time"

	"donor-clv/internal/domain"
	"donor-clv/internal/storage"
)

// Fixture donor id ranges.
const (
	ReferenceDonorCount = 500
	highValueFirstID    = 1001
	highValueCount      = 10
	lowValueFirstID     = 2001
	lowValueCount       = 20
	degenerateFirstID   = 9001
)

// LoadFixtures populates store with demonstration donors for donationYear.
func LoadFixtures(ctx context.Context, store storage.DonorStore, donationYear int) error {
	if err := store.InsertBulk(ctx, donationYear, FixtureDonors(donationYear)); err != nil {
		return fmt.Errorf("load fixture donors: %w", err)
	}
	return nil
}

// FixtureDonors returns the demonstration donor set:
//   - 500 reference donors (1000 over 2 gifts, Jan 1 to Jul 1)
//   - 10 high value donors
//   - 20 low value donors
//   - 3 degenerate records the engine excludes
//   - 1 single-gift, same-day donor
func FixtureDonors(donationYear int) []*domain.DonorRecord {
	records := ReferenceDonors(donationYear)

	for i := 0; i < highValueCount; i++ {
		records = append(records, &domain.DonorRecord{
			DonorID:             int64(highValueFirstID + i),
			TotalDonationAmount: 25000 + float64(i)*1000,
			NumberOfGifts:       10,
			FirstDonationDate:   date(donationYear, time.January, 5),
			LastDonationDate:    date(donationYear, time.December, 20),
		})
	}

	for i := 0; i < lowValueCount; i++ {
		records = append(records, &domain.DonorRecord{
			DonorID:             int64(lowValueFirstID + i),
			TotalDonationAmount: 50 + float64(i)*5,
			NumberOfGifts:       1 + i%2,
			FirstDonationDate:   date(donationYear, time.January, 1),
			LastDonationDate:    date(donationYear, time.December, 31),
		})
	}

	return append(records, degenerateDonors(donationYear)...)
}

// ReferenceDonors returns identical donors whose CPA is 20000 under the
// default configuration and who all land in Medium Value, Unprofitable.
func ReferenceDonors(donationYear int) []*domain.DonorRecord {
	records := make([]*domain.DonorRecord, 0, ReferenceDonorCount)
	for i := 1; i <= ReferenceDonorCount; i++ {
		records = append(records, &domain.DonorRecord{
			DonorID:             int64(i),
			TotalDonationAmount: 1000,
			NumberOfGifts:       2,
			FirstDonationDate:   date(donationYear, time.January, 1),
			LastDonationDate:    date(donationYear, time.July, 1),
		})
	}
	return records
}

func degenerateDonors(donationYear int) []*domain.DonorRecord {
	return []*domain.DonorRecord{
		{
			DonorID:             degenerateFirstID,
			TotalDonationAmount: 300,
			NumberOfGifts:       0, // zero gifts
			FirstDonationDate:   date(donationYear, time.March, 1),
			LastDonationDate:    date(donationYear, time.April, 1),
		},
		{
			DonorID:             degenerateFirstID + 1,
			TotalDonationAmount: 300,
			NumberOfGifts:       3,
			FirstDonationDate:   date(donationYear, time.June, 1), // after last gift
			LastDonationDate:    date(donationYear, time.February, 1),
		},
		{
			DonorID:             degenerateFirstID + 2,
			TotalDonationAmount: -50, // refund exceeds gifts
			NumberOfGifts:       1,
			FirstDonationDate:   date(donationYear, time.May, 1),
			LastDonationDate:    date(donationYear, time.May, 1),
		},
		{
			DonorID:             degenerateFirstID + 3,
			TotalDonationAmount: 80,
			NumberOfGifts:       1,
			FirstDonationDate:   date(donationYear, time.August, 15),
			LastDonationDate:    date(donationYear, time.August, 15), // same day, valid
		},
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
