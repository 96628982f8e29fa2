package lessons

import "github.com/Scc33/BuddySQL/grading"

var (
	selectHints = []string{
		"Make sure your SELECT syntax is correct",
		"Check that you're selecting the right columns",
		"Verify your table name",
	}
	whereHints = []string{
		"Ensure your WHERE clause has the correct conditions",
		"Check the comparison operators (=, <, >, etc.)",
		"Verify any string values are properly quoted",
	}
	joinHints = []string{
		"Verify your JOIN syntax",
		"Check that you're joining the tables on the correct keys",
		"Make sure the JOIN type (INNER, LEFT, etc.) is correct",
	}
	groupByHints = []string{
		"Ensure you're using the GROUP BY clause correctly",
		"Check that you're grouping by the right columns",
		"Remember that non-aggregated columns in the SELECT should be in the GROUP BY",
	}
)

func rows(n int) *int { return &n }

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// GradeOptions returns the grading rules for a lesson's practice exercise or,
// when challenge is set, its challenge. Unknown lessons get empty options,
// which accept any query that returns rows.
func GradeOptions(key string, challenge bool) grading.Options {
	lesson, ok := Lookup(key)
	if !ok {
		return grading.Options{}
	}

	switch lesson.Slug {
	case "introduction-to-sql":
		if challenge {
			return grading.Options{}
		}
		return grading.Options{
			MustContain: []string{"SELECT", "FROM", "Customers"},
			Hints:       selectHints,
		}

	case "select-basics":
		if challenge {
			return grading.Options{
				MustContain:     []string{"SELECT", "name", "price", "FROM", "Products"},
				ExpectedColumns: []string{"name", "price"},
				ExpectedRows:    rows(10),
				Hints: []string{
					"Make sure to select only the name and price columns",
					"Check that you're selecting from the Products table",
				},
			}
		}
		return grading.Options{
			MustContain:     []string{"SELECT", "first_name", "last_name", "email", "FROM", "Customers"},
			ExpectedColumns: []string{"first_name", "last_name", "email"},
			Hints:           selectHints,
		}

	case "filtering-with-where":
		if challenge {
			return grading.Options{
				MustContain:  []string{"SELECT", "FROM", "Products", "WHERE", "category", "Electronics"},
				ExpectedRows: rows(3),
				Hints: []string{
					"Check your WHERE clause",
					"Make sure to filter for the 'Electronics' category",
					"String values need to be enclosed in single quotes: 'Electronics'",
				},
			}
		}
		return grading.Options{
			MustContain: []string{"SELECT", "FROM", "Products", "WHERE", "price", ">", "100"},
			Hints:       whereHints,
		}

	case "pattern-matching":
		if challenge {
			return grading.Options{
				MustContain:  []string{"SELECT", "FROM", "Customers", "WHERE", "last_name", "LIKE"},
				ExpectedRows: rows(1),
				Hints: []string{
					"Use LIKE with a wildcard pattern",
					"'S%' matches any text that starts with S",
				},
			}
		}
		opts := grading.Filtering([]string{"LIKE"})
		opts.Hints = whereHints
		return opts

	case "null-values":
		if challenge {
			return grading.Options{
				MustContain:    []string{"SELECT", "FROM", "Products", "WHERE", "IS NOT NULL", "price"},
				MustNotContain: []string{"= NULL"},
				ExpectedRows:   rows(6),
				Hints: []string{
					"Use IS NOT NULL to check for missing values",
					"Combine both conditions with AND",
				},
			}
		}
		return grading.Options{
			MustContain:    []string{"SELECT", "FROM", "WHERE", "IS"},
			MustNotContain: []string{"= NULL"},
			Hints:          whereHints,
		}

	case "sorting-results":
		if challenge {
			return grading.Options{
				MustContain: []string{"SELECT", "FROM", "Customers", "ORDER BY", "last_name"},
				Hints: []string{
					"Use ORDER BY to sort the results",
					"Sort by the last_name column",
					"ASC (ascending) is the default sort order, so you don't need to specify it",
				},
			}
		}
		return grading.Options{
			MustContain: []string{"SELECT", "FROM", "Products", "ORDER BY", "price", "DESC"},
			Hints: concat(selectHints, []string{
				"Use ORDER BY to sort by price",
				"Use DESC to sort in descending order (highest to lowest)",
			}),
		}

	case "aggregate-functions":
		if challenge {
			return grading.Options{
				MustContain: []string{"SELECT", "SUM", "total_amount", "FROM", "Orders"},
				Hints: []string{
					"Use the SUM aggregate function",
					"Apply it to the total_amount column in the Orders table",
				},
			}
		}
		return grading.Aggregation([]string{"COUNT"}, false)

	case "group-by":
		if challenge {
			return grading.Options{
				MustContain: []string{"SELECT", "customer_id", "SUM", "total_amount", "FROM", "Orders", "GROUP BY", "customer_id"},
				Hints: []string{
					"Use GROUP BY to group orders by customer_id",
					"Use SUM to calculate the total amount spent by each customer",
				},
			}
		}
		opts := grading.Aggregation([]string{"COUNT"}, true)
		opts.Hints = groupByHints
		return opts

	case "joins-basics":
		if challenge {
			return grading.Options{
				MustContain: []string{
					"SELECT", "order_id", "quantity", "name", "price", "FROM",
					"Order_Items", "INNER JOIN", "Products", "ON", "product_id",
				},
				Hints: []string{
					"Join the Order_Items and Products tables",
					"Use INNER JOIN to connect the tables",
					"Join on the product_id column that appears in both tables",
					"Make sure to select columns from both tables",
				},
			}
		}
		opts := grading.Joining("INNER JOIN", []string{"Customers", "Orders"})
		opts.Hints = joinHints
		return opts

	case "limit-clause":
		if challenge {
			return grading.Options{
				MustContain:  []string{"SELECT", "FROM", "Products", "ORDER BY", "price", "LIMIT"},
				ExpectedRows: rows(5),
				Hints: []string{
					"Sort by price in ascending order first",
					"Use LIMIT 5 to keep only the first five rows",
				},
			}
		}
		return grading.Options{
			MustContain: []string{"SELECT", "FROM", "LIMIT"},
			Hints:       selectHints,
		}

	case "offset-clause":
		if challenge {
			return grading.Options{
				MustContain:  []string{"SELECT", "FROM", "Products", "ORDER BY", "price", "LIMIT", "OFFSET"},
				ExpectedRows: rows(3),
				Hints: []string{
					"Skip the two cheapest products with OFFSET 2",
					"Use LIMIT 3 to return the next three",
				},
			}
		}
		return grading.Options{
			MustContain: []string{"SELECT", "FROM", "LIMIT", "OFFSET"},
			Hints:       selectHints,
		}
	}

	return grading.Options{}
}
