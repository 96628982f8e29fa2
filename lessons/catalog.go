// Package lessons holds the lesson catalog and the grading rules for each
// lesson's practice exercise and challenge.
package lessons

import (
	"sort"
	"strings"
)

// Challenge is the graded exercise at the end of a lesson.
type Challenge struct {
	Description    string `json:"description"`
	SuccessMessage string `json:"success_message"`

	// ValidationQuery is a reference solution. Its results are compared with
	// the learner's results when grading the challenge.
	ValidationQuery string `json:"validation_query,omitempty"`
}

// Lesson is one entry of the course.
type Lesson struct {
	ID           string     `json:"id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Order        int        `json:"order"`
	InitialQuery string     `json:"initial_query,omitempty"`
	Challenge    *Challenge `json:"challenge,omitempty"`
}

var catalog = []Lesson{
	{
		ID:           "1",
		Slug:         "introduction-to-sql",
		Title:        "Introduction to SQL",
		Description:  "Learn what SQL is and run your first query",
		Order:        1,
		InitialQuery: "SELECT * FROM Customers;",
		Challenge: &Challenge{
			Description:     "Write a query to select from the customers table",
			SuccessMessage:  "Great job! You're well on your way to learning SQL!",
			ValidationQuery: "SELECT * FROM Customers;",
		},
	},
	{
		ID:           "2",
		Slug:         "select-basics",
		Title:        "SELECT Basics",
		Description:  "Learn how to retrieve specific columns of data",
		Order:        2,
		InitialQuery: "SELECT first_name, last_name, email FROM Customers;",
		Challenge: &Challenge{
			Description:     "Write a query to select only the product name and price from the Products table.",
			SuccessMessage:  "Great job! You've successfully selected specific columns from the Products table.",
			ValidationQuery: "SELECT name, price FROM Products;",
		},
	},
	{
		ID:           "3",
		Slug:         "filtering-with-where",
		Title:        "Filtering with WHERE",
		Description:  "Learn how to filter rows with conditions",
		Order:        3,
		InitialQuery: "SELECT name, price FROM Products WHERE price > 100;",
		Challenge: &Challenge{
			Description:     `Write a query to find all products in the "Electronics" category.`,
			SuccessMessage:  "Excellent! You've successfully filtered data using the WHERE clause.",
			ValidationQuery: "SELECT * FROM Products WHERE category = 'Electronics';",
		},
	},
	{
		ID:           "4",
		Slug:         "pattern-matching",
		Title:        "Pattern Matching with LIKE",
		Description:  "Search text columns with wildcards",
		Order:        4,
		InitialQuery: "SELECT name, description FROM Products WHERE name LIKE '%Pro%';",
		Challenge: &Challenge{
			Description:     "Write a query to find all customers whose last name starts with the letter 'S'.",
			SuccessMessage:  "Excellent! You've successfully used pattern matching to search for specific text patterns.",
			ValidationQuery: "SELECT * FROM Customers WHERE last_name LIKE 'S%';",
		},
	},
	{
		ID:           "5",
		Slug:         "null-values",
		Title:        "Working with NULL Values",
		Description:  "Find and filter missing values",
		Order:        5,
		InitialQuery: "SELECT name, description FROM Products WHERE description IS NULL;",
		Challenge: &Challenge{
			Description:     "Write a query to find all products that have a description (are NOT NULL) and cost more than $50.",
			SuccessMessage:  "Excellent! You've successfully combined NULL handling with other conditions to filter data properly.",
			ValidationQuery: "SELECT * FROM Products WHERE description IS NOT NULL AND price > 50;",
		},
	},
	{
		ID:           "6",
		Slug:         "sorting-results",
		Title:        "Sorting Results",
		Description:  "Order rows with ORDER BY",
		Order:        6,
		InitialQuery: "SELECT name, price FROM Products ORDER BY price DESC;",
		Challenge: &Challenge{
			Description:     "Write a query to show all customers ordered alphabetically by last name.",
			SuccessMessage:  "Great job! You've successfully sorted data using ORDER BY.",
			ValidationQuery: "SELECT * FROM Customers ORDER BY last_name;",
		},
	},
	{
		ID:           "7",
		Slug:         "aggregate-functions",
		Title:        "Aggregate Functions",
		Description:  "Summarize data with COUNT, SUM, AVG, MIN and MAX",
		Order:        7,
		InitialQuery: "SELECT COUNT(*) AS total_products FROM Products;",
		Challenge: &Challenge{
			Description:     "Write a query to calculate the total value of all orders (hint: use SUM on the total_amount field in the Orders table).",
			SuccessMessage:  "Excellent! You've successfully used an aggregate function to calculate a total.",
			ValidationQuery: "SELECT SUM(total_amount) FROM Orders;",
		},
	},
	{
		ID:           "8",
		Slug:         "group-by",
		Title:        "Grouping Data",
		Description:  "Aggregate per group with GROUP BY",
		Order:        8,
		InitialQuery: "SELECT category, COUNT(*) AS product_count FROM Products GROUP BY category;",
		Challenge: &Challenge{
			Description:     "Write a query to find the total value of orders placed by each customer (hint: group by customer_id and sum the total_amount).",
			SuccessMessage:  "Well done! You've successfully used GROUP BY to summarize data.",
			ValidationQuery: "SELECT customer_id, SUM(total_amount) AS total_spent FROM Orders GROUP BY customer_id;",
		},
	},
	{
		ID:           "9",
		Slug:         "joins-basics",
		Title:        "Basic JOINs",
		Description:  "Combine rows from related tables",
		Order:        9,
		InitialQuery: "SELECT c.first_name, c.last_name, o.order_id, o.total_amount FROM Customers c INNER JOIN Orders o ON c.customer_id = o.customer_id;",
		Challenge: &Challenge{
			Description:     "Write a query that shows product details for each order item (combine Order_Items with Products using a JOIN).",
			SuccessMessage:  "Excellent! You've successfully joined multiple tables to retrieve related data.",
			ValidationQuery: "SELECT oi.order_id, oi.quantity, p.name, p.price FROM Order_Items oi INNER JOIN Products p ON oi.product_id = p.product_id;",
		},
	},
	{
		ID:           "10",
		Slug:         "limit-clause",
		Title:        "The LIMIT Clause",
		Description:  "Restrict how many rows a query returns",
		Order:        10,
		InitialQuery: "SELECT name, price FROM Products ORDER BY price DESC LIMIT 3;",
		Challenge: &Challenge{
			Description:     "Write a query to find the 5 cheapest products ordered by price.",
			SuccessMessage:  "Excellent! You've successfully used LIMIT to retrieve a specific number of rows.",
			ValidationQuery: "SELECT * FROM Products ORDER BY price ASC LIMIT 5;",
		},
	},
	{
		ID:           "11",
		Slug:         "offset-clause",
		Title:        "The OFFSET Clause",
		Description:  "Skip rows to page through results",
		Order:        11,
		InitialQuery: "SELECT name, price FROM Products ORDER BY price LIMIT 3 OFFSET 3;",
		Challenge: &Challenge{
			Description:     "Write a query to get the third, fourth, and fifth cheapest products ordered by price (hint: use LIMIT with OFFSET).",
			SuccessMessage:  "Great job! You've successfully used OFFSET to skip rows in your query results.",
			ValidationQuery: "SELECT * FROM Products ORDER BY price ASC LIMIT 3 OFFSET 2;",
		},
	},
}

// All returns every lesson in course order.
func All() []Lesson {
	out := make([]Lesson, len(catalog))
	copy(out, catalog)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Lookup finds a lesson by slug or by id.
func Lookup(key string) (Lesson, bool) {
	key = strings.TrimSpace(key)
	for _, l := range catalog {
		if l.Slug == key || l.ID == key {
			return l, true
		}
	}
	return Lesson{}, false
}
