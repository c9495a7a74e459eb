package pgwire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/weiihann/ormbench/bench"
)

// timestampLayout matches the text output of a TIMESTAMP column under
// dateStyle. Fractional seconds are optional.
const (
	dateStyle       = "ISO, MDY"
	timestampLayout = "2006-01-02 15:04:05.999999999"
)

var errMalformedArray = errors.New("malformed array literal")

func parseInt32(v []byte) (int32, error) {
	n, err := strconv.ParseInt(string(v), 10, 32)
	if err != nil {
		return 0, err
	}

	return int32(n), nil
}

func parseTimestamp(v []byte) (time.Time, error) {
	return time.Parse(timestampLayout, string(v))
}

// decodeUser decodes the id, name, hair_color and created_at text columns
// at the head of row.
func decodeUser(row [][]byte) (bench.User, error) {
	if len(row) < 4 {
		return bench.User{}, fmt.Errorf("user row has %d columns, want 4", len(row))
	}

	id, err := parseInt32(row[0])
	if err != nil {
		return bench.User{}, fmt.Errorf("id: %w", err)
	}

	createdAt, err := parseTimestamp(row[3])
	if err != nil {
		return bench.User{}, fmt.Errorf("created_at: %w", err)
	}

	u := bench.User{ID: id, Name: string(row[1]), CreatedAt: createdAt}
	if row[2] != nil {
		hairColor := string(row[2])
		u.HairColor = &hairColor
	}

	return u, nil
}

// decodeUserWithPosts decodes a user row followed by the post_ids,
// post_titles and post_contents array columns.
func decodeUserWithPosts(row [][]byte) (bench.UserPosts, error) {
	if len(row) < 7 {
		return bench.UserPosts{}, fmt.Errorf("relation row has %d columns, want 7", len(row))
	}

	u, err := decodeUser(row)
	if err != nil {
		return bench.UserPosts{}, err
	}

	rawIDs, err := parseTextArray(string(row[4]))
	if err != nil {
		return bench.UserPosts{}, fmt.Errorf("post_ids: %w", err)
	}

	ids := make([]int32, len(rawIDs))
	for i, s := range rawIDs {
		if ids[i], err = parseInt32([]byte(s)); err != nil {
			return bench.UserPosts{}, fmt.Errorf("post_ids[%d]: %w", i, err)
		}
	}

	titles, err := parseTextArray(string(row[5]))
	if err != nil {
		return bench.UserPosts{}, fmt.Errorf("post_titles: %w", err)
	}

	contents, err := parseTextArray(string(row[6]))
	if err != nil {
		return bench.UserPosts{}, fmt.Errorf("post_contents: %w", err)
	}

	return bench.UserPosts{User: u, Posts: bench.ZipPosts(u.ID, ids, titles, contents)}, nil
}

// parseTextArray parses the text form of a one-dimensional array without
// NULL elements, such as {1,2} or {"a b","c\"d"}.
func parseTextArray(src string) ([]string, error) {
	if len(src) < 2 || src[0] != '{' || src[len(src)-1] != '}' {
		return nil, fmt.Errorf("%w: %q", errMalformedArray, src)
	}

	body := src[1 : len(src)-1]
	out := []string{}

	if body == "" {
		return out, nil
	}

	var elem strings.Builder

	for i := 0; ; {
		elem.Reset()

		if body[i] == '"' {
			i++

			for closed := false; !closed; {
				if i >= len(body) {
					return nil, fmt.Errorf("%w: unterminated quote in %q", errMalformedArray, src)
				}

				switch c := body[i]; c {
				case '\\':
					if i+1 >= len(body) {
						return nil, fmt.Errorf("%w: dangling escape in %q", errMalformedArray, src)
					}
					elem.WriteByte(body[i+1])
					i += 2
				case '"':
					closed = true
					i++
				default:
					elem.WriteByte(c)
					i++
				}
			}
		} else {
			end := strings.IndexByte(body[i:], ',')
			if end < 0 {
				end = len(body) - i
			}

			raw := body[i : i+end]
			switch {
			case raw == "":
				return nil, fmt.Errorf("%w: empty element in %q", errMalformedArray, src)
			case strings.EqualFold(raw, "NULL"):
				return nil, fmt.Errorf("%w: NULL element in %q", errMalformedArray, src)
			case strings.ContainsAny(raw, `{}"`):
				return nil, fmt.Errorf("%w: nested or stray quote in %q", errMalformedArray, src)
			}

			elem.WriteString(raw)
			i += end
		}

		out = append(out, elem.String())

		if i == len(body) {
			return out, nil
		}

		if body[i] != ',' {
			return nil, fmt.Errorf("%w: expected ',' at %d in %q", errMalformedArray, i+1, src)
		}
		i++

		if i == len(body) {
			return nil, fmt.Errorf("%w: trailing ',' in %q", errMalformedArray, src)
		}
	}
}
