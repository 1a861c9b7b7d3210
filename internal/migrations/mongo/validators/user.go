package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "id_number", "phone", "role", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"id_number": bson.M{
				"bsonType":  "string",
				"minLength": 4,
				"maxLength": 32,
			},
			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9][0-9]{7,14}$`,
			},
			"role": bson.M{
				"enum": []string{"admin", "user"},
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
