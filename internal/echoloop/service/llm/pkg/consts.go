package pkg

const ModuleName = "llm"
