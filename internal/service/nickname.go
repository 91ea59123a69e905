package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"github.com/dtroode/userhub/internal/model"
)

var nicknamePattern = regexp.MustCompile(`^[\w-]{3,50}$`)

var (
	nicknameAdjectives = []string{"clever", "jolly", "brave", "sly", "gentle", "swift", "quiet", "bold", "lucky", "witty"}
	nicknameAnimals    = []string{"panda", "fox", "raccoon", "koala", "lion", "otter", "heron", "lynx", "badger", "falcon"}
)

// GenerateNickname returns a random adjective_animal_number nickname.
func GenerateNickname() string {
	return fmt.Sprintf("%s_%s_%d", pick(nicknameAdjectives), pick(nicknameAnimals), randInt(1000))
}

// ValidateNickname checks the nickname format.
func ValidateNickname(nickname string) error {
	if !nicknamePattern.MatchString(nickname) {
		return model.NewValidationError(model.ConstraintField,
			"nickname must be 3-50 characters of letters, digits, underscores or hyphens")
	}
	return nil
}

func pick(words []string) string {
	return words[randInt(len(words))]
}

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
