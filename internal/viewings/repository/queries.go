package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The five query shapes below describe, for a room and a [start, end] window,
// which stored viewings collide with it. OverlapFilter collapses them into a
// single predicate and is what the service uses.

func EndDuringFilter(roomID string, start, end time.Time) bson.M {
	return bson.M{
		"room_id":  roomID,
		"end_time": bson.M{"$gt": start, "$lt": end},
	}
}

func StartDuringFilter(roomID string, start, end time.Time) bson.M {
	return bson.M{
		"room_id":    roomID,
		"start_time": bson.M{"$gt": start, "$lt": end},
	}
}

func HappeningDuringFilter(roomID string, start, end time.Time) bson.M {
	return bson.M{
		"room_id":    roomID,
		"start_time": bson.M{"$gt": start},
		"end_time":   bson.M{"$lt": end},
	}
}

func EnvelopingFilter(roomID string, start, end time.Time) bson.M {
	return bson.M{
		"room_id":    roomID,
		"start_time": bson.M{"$lt": start},
		"end_time":   bson.M{"$gt": end},
	}
}

func IdenticalFilter(roomID string, start, end time.Time) bson.M {
	return bson.M{
		"room_id":    roomID,
		"start_time": start,
		"end_time":   end,
	}
}

// OverlapFilter matches every viewing of roomID whose span intersects
// [start, end] or equals it exactly. A valid excludeID drops that record.
func OverlapFilter(roomID string, start, end time.Time, excludeID string) bson.M {
	filter := bson.M{
		"room_id": roomID,
		"$or": []bson.M{
			{
				"start_time": bson.M{"$lt": end},
				"end_time":   bson.M{"$gt": start},
			},
			{
				"start_time": start,
				"end_time":   end,
			},
		},
	}

	if excludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			filter["_id"] = bson.M{"$ne": oid}
		}
	}

	return filter
}

// RangeFilter lists a room's viewings touching the optional [from, to] window.
func RangeFilter(roomID string, from, to *time.Time) bson.M {
	filter := bson.M{"room_id": roomID}

	switch {
	case from != nil && to != nil:
		filter["start_time"] = bson.M{"$lt": *to}
		filter["end_time"] = bson.M{"$gt": *from}
	case from != nil:
		filter["end_time"] = bson.M{"$gt": *from}
	case to != nil:
		filter["start_time"] = bson.M{"$lt": *to}
	}

	return filter
}
