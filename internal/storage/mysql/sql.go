package mysql

const destinationColumns = `id, name, city, climate, budget_category, info, rating, price, image_url`

const listDestinationsSQL = `
SELECT ` + destinationColumns + `
FROM destinations
ORDER BY id
`

// WHERE clauses are appended by FindDestinations; every criterion is optional.
const findDestinationsPrefix = `
SELECT ` + destinationColumns + `
FROM destinations
`

const findDestinationsOrder = `
ORDER BY id
`

const deleteDestinationsSQL = `DELETE FROM destinations`

const insertDestinationsPrefix = "INSERT INTO destinations\n  (id, name, city, climate, budget_category, info, rating, price, image_url)\nVALUES "
