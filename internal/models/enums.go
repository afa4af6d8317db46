// internal/models/enums.go
package models

// Enum domains mirror the Postgres enum types created by the schema migration.

type CafeType string

const (
	CafeTypeIndoor        CafeType = "indoor_cafe"
	CafeTypeOutdoor       CafeType = "outdoor_cafe"
	CafeTypeIndoorOutdoor CafeType = "indoor_outdoor_cafe"
)

var CafeTypes = []CafeType{CafeTypeIndoor, CafeTypeOutdoor, CafeTypeIndoorOutdoor}

type Region string

const (
	RegionSukabirus   Region = "sukabirus"
	RegionSukapura    Region = "sukapura"
	RegionBojongsoang Region = "bojongsoang"
	RegionBuahbatu    Region = "buahbatu"
	RegionDayeuhkolot Region = "dayeuhkolot"
)

var Regions = []Region{RegionSukabirus, RegionSukapura, RegionBojongsoang, RegionBuahbatu, RegionDayeuhkolot}

type PriceRange string

const (
	PriceRangeMurah  PriceRange = "murah"
	PriceRangeSedang PriceRange = "sedang"
	PriceRangeMahal  PriceRange = "mahal"
)

var PriceRanges = []PriceRange{PriceRangeMurah, PriceRangeSedang, PriceRangeMahal}

type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
)

var ContentStatuses = []ContentStatus{ContentStatusDraft, ContentStatusPublished}

// StarRating is the review score, stored as an ordered enum (satu < ... < lima).
type StarRating string

const (
	StarRatingSatu  StarRating = "satu"
	StarRatingDua   StarRating = "dua"
	StarRatingTiga  StarRating = "tiga"
	StarRatingEmpat StarRating = "empat"
	StarRatingLima  StarRating = "lima"
)

var StarRatings = []StarRating{StarRatingSatu, StarRatingDua, StarRatingTiga, StarRatingEmpat, StarRatingLima}

// Score returns the numeric value of the rating, 0 for unknown values.
func (r StarRating) Score() int {
	for i, v := range StarRatings {
		if v == r {
			return i + 1
		}
	}
	return 0
}

type VisitorType string

const (
	VisitorTypeKeluarga VisitorType = "keluarga"
	VisitorTypePasangan VisitorType = "pasangan"
	VisitorTypeSolo     VisitorType = "solo"
	VisitorTypeBisnis   VisitorType = "bisnis"
	VisitorTypeTeman    VisitorType = "teman"
)

var VisitorTypes = []VisitorType{VisitorTypeKeluarga, VisitorTypePasangan, VisitorTypeSolo, VisitorTypeBisnis, VisitorTypeTeman}

// RatingBucket is the public name of a whole-star average rating band.
type RatingBucket string

const (
	RatingBucketOne   RatingBucket = "one"
	RatingBucketTwo   RatingBucket = "two"
	RatingBucketThree RatingBucket = "three"
	RatingBucketFour  RatingBucket = "four"
	RatingBucketFive  RatingBucket = "five"
)

var RatingBuckets = []RatingBucket{RatingBucketOne, RatingBucketTwo, RatingBucketThree, RatingBucketFour, RatingBucketFive}

// Floor returns the lower bound of the bucket on the 0-5 average scale.
func (b RatingBucket) Floor() float64 {
	for i, v := range RatingBuckets {
		if v == b {
			return float64(i + 1)
		}
	}
	return 0
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// EnumStrings converts a typed enum domain to plain strings.
func EnumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
